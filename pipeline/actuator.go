package pipeline

import (
	"trackpilot/pkg/log"
)

// Command is one actuation request.
type Command struct {
	Speed float64
	Servo float64
}

// LogActuator records commands and logs them instead of talking to the
// vehicle. It stands in for the serial link on a bench or with recorded video.
type LogActuator struct {
	Commands []Command
	Stopped  bool
	log      *log.Entry
}

func NewLogActuator() *LogActuator {
	return &LogActuator{log: log.Component("actuator")}
}

func (a *LogActuator) Drive(speed, servo float64) error {
	a.Commands = append(a.Commands, Command{Speed: speed, Servo: servo})
	a.Stopped = false
	a.log.WithFields(log.Fields{"speed": speed, "servo": servo}).Debug("drive")
	return nil
}

func (a *LogActuator) Stop() error {
	a.Commands = append(a.Commands, Command{})
	a.Stopped = true
	a.log.Info("stop")
	return nil
}

// Last returns the most recent command.
func (a *LogActuator) Last() (Command, bool) {
	if len(a.Commands) == 0 {
		return Command{}, false
	}
	return a.Commands[len(a.Commands)-1], true
}
