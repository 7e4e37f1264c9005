package tasksys_test

import (
	"errors"
	"testing"

	tasksys "github.com/Swind/go-task-system"
	"github.com/Swind/go-task-system/core"
)

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want tasksys.Kind
	}{
		{"serial", tasksys.KindSerial},
		{"Spawn", tasksys.KindSpawn},
		{" spinning ", tasksys.KindSpinning},
		{"SLEEPING", tasksys.KindSleeping},
	} {
		got, err := tasksys.ParseKind(tc.in)
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := tasksys.ParseKind("fibers"); err == nil {
		t.Error("ParseKind accepted an unknown kind")
	}
}

func TestNew_AllKinds(t *testing.T) {
	config := &core.SystemConfig{Logger: core.NewNoOpLogger()}
	for _, kind := range tasksys.Kinds() {
		sys, err := tasksys.New(kind, 2, config)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", kind, err)
		}
		if got := sys.Stats().Kind; got != string(kind) {
			t.Errorf("New(%q) kind = %q", kind, got)
		}
		if err := sys.Run(core.RunnableFunc(func(int, int) {}), 10); err != nil {
			t.Errorf("%s Run failed: %v", kind, err)
		}
		if err := sys.Close(); err != nil {
			t.Errorf("%s Close failed: %v", kind, err)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := tasksys.New("fibers", 2, nil); err == nil {
		t.Error("New accepted an unknown kind")
	}
	if _, err := tasksys.New(tasksys.KindSleeping, 0, nil); !errors.Is(err, core.ErrInvalidThreadCount) {
		t.Errorf("New with 0 threads err = %v, want ErrInvalidThreadCount", err)
	}
}
