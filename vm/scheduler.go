package vm

import (
	"io"
	"log"
	"os"
	"sync"

	"github.com/wudi/corevm/code"
	"github.com/wudi/corevm/config"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/vmerror"
)

// ExitStatus is the VM's final result (spec §6).
type ExitStatus int

const (
	// ExitOk: the main thread and every thread it started completed
	// without a fatal error.
	ExitOk ExitStatus = iota
	// ExitErr: some thread raised a fatal error.
	ExitErr
)

// Scheduler spawns OS threads (goroutines, in this Go restatement) that
// execute a Thread's entry code, handles thread termination, fatal error
// reporting, and the VM's exit status (spec §4.5, component C9).
type Scheduler struct {
	Mem    *Memory
	Interp *Interpreter
	Config config.VMConfig

	// Stderr is where the fatal-error report of spec §6 is written.
	// Defaults to os.Stderr; tests substitute a buffer.
	Stderr io.Writer
	// Logger records thread lifecycle events. Defaults to a logger
	// writing to os.Stderr with a "[vm] " prefix.
	Logger *log.Logger

	mu         sync.Mutex
	status     ExitStatus
	mainThread *Thread
}

// NewScheduler constructs a Scheduler backed by mem, whose Interpreter is
// shared by every Thread it spawns, using config.Default().
func NewScheduler(mem *Memory) *Scheduler {
	return NewSchedulerWithConfig(mem, config.Default())
}

// NewSchedulerWithConfig constructs a Scheduler governed by cfg.
func NewSchedulerWithConfig(mem *Memory, cfg config.VMConfig) *Scheduler {
	s := &Scheduler{
		Mem:    mem,
		Config: cfg,
		Stderr: os.Stderr,
		Logger: log.New(os.Stderr, "[vm] ", log.LstdFlags),
	}
	s.Interp = NewInterpreter(mem)
	s.Interp.sched = s
	return s
}

// Start spins up the main Thread, blocks until its worker joins, and
// returns the VM's exit status (spec §4.5 "start").
func (s *Scheduler) Start(c *code.CompiledCode) ExitStatus {
	threadObj := s.spawn(c, true)
	handle, _ := threadObj.Payload().Thread.(*Thread)
	s.mu.Lock()
	s.mainThread = handle
	s.mu.Unlock()
	if handle != nil {
		if join := handle.TakeJoinHandle(); join != nil {
			<-join
		}
	}
	s.Mem.Threads().StopAndWait(s.Config.ShutdownGrace)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// MainResult returns the value the main thread's top-level code returned,
// once Start has returned. Used by callers (and tests) that want the
// program's result rather than just its exit status.
func (s *Scheduler) MainResult() *object.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mainThread == nil {
		return nil
	}
	return s.mainThread.FinalValue()
}

// Spawn starts a new, non-main Thread running c and returns the Object
// wrapping it (spec §4.4 "StartThread", spec §4.5 "spawn" with
// is_main=false). It requires the Thread prototype to already be
// installed.
func (s *Scheduler) Spawn(c *code.CompiledCode) (*object.Object, error) {
	if s.Mem.ThreadPrototype() == nil {
		return nil, vmerror.New(vmerror.Setup, "Thread prototype is not installed")
	}
	if s.Config.MaxThreads > 0 && s.Mem.Threads().Len() >= s.Config.MaxThreads {
		return nil, vmerror.New(vmerror.Setup, "thread limit of %d reached", s.Config.MaxThreads)
	}
	return s.spawn(c, false), nil
}

// spawn implements spec §4.5 "spawn" and the rendezvous of spec §5: the
// new goroutine blocks on a channel until the spawning side has finished
// constructing the Thread object and registered it, so the new Thread
// never observes a partially built Object wrapping itself.
func (s *Scheduler) spawn(c *code.CompiledCode, isMain bool) *object.Object {
	rendezvous := make(chan *object.Object, 1)
	done := make(chan struct{})

	go func() {
		threadObj := <-rendezvous
		t, _ := threadObj.Payload().Thread.(*Thread)

		result, err := s.Interp.Run(t, c, c.Name, nil)

		s.Mem.Threads().Remove(t)
		threadObj.Unpin()
		if s.Config.Verbose {
			s.Logger.Printf("thread %s finished (main=%v, failed=%v)", t.ID(), isMain, err != nil)
		}

		if err != nil {
			s.reportFatal(err)
			s.Mem.Threads().Stop()
		} else {
			t.SetFinalValue(result)
		}

		close(done)
	}()

	t := NewThread()
	if isMain {
		t.SetMain()
	}
	t.SetJoinHandle(done)

	threadObj := s.Mem.AllocateThread(t)
	s.Mem.Threads().Add(t)
	if s.Config.Verbose {
		s.Logger.Printf("thread %s spawned (main=%v)", t.ID(), isMain)
	}

	rendezvous <- threadObj
	return threadObj
}

// reportFatal prints the fatal-error report of spec §6 and records Err as
// the VM's exit status. Safe to call from any goroutine; the first caller
// wins but every caller's message is still printed.
func (s *Scheduler) reportFatal(err *vmerror.Error) {
	s.mu.Lock()
	s.status = ExitErr
	s.mu.Unlock()

	depth := len(err.Frames)
	if !s.Config.TraceFatal {
		depth = 1
	}
	io.WriteString(s.Stderr, err.FormatDepth(depth))
	if f, ok := s.Stderr.(interface{ Sync() error }); ok {
		f.Sync()
	}
}
