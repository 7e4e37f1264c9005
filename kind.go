package tasksys

import (
	"fmt"
	"strings"

	"github.com/Swind/go-task-system/core"
)

// Kind names a scheduling strategy.
type Kind string

const (
	KindSerial   Kind = "serial"
	KindSpawn    Kind = "spawn"
	KindSpinning Kind = "spinning"
	KindSleeping Kind = "sleeping"
)

// Kinds returns every strategy in order of sophistication.
func Kinds() []Kind {
	return []Kind{KindSerial, KindSpawn, KindSpinning, KindSleeping}
}

// ParseKind converts a flag or config value into a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown task system kind %q", s)
}

// New creates a task system of the given kind. threads is ignored by the
// serial system and must be at least 1 for the others. A nil config uses
// DefaultSystemConfig.
func New(kind Kind, threads int, config *core.SystemConfig) (core.TaskSystem, error) {
	if config == nil {
		config = core.DefaultSystemConfig()
	}
	switch kind {
	case KindSerial:
		return core.NewSerialTaskSystemWithConfig(config), nil
	case KindSpawn:
		return core.NewSpawnTaskSystemWithConfig(threads, config)
	case KindSpinning:
		return core.NewSpinningTaskSystemWithConfig(threads, config)
	case KindSleeping:
		return core.NewSleepingTaskSystemWithConfig(threads, config)
	default:
		return nil, fmt.Errorf("unknown task system kind %q", kind)
	}
}
