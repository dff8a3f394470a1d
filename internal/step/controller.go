package step

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
)

const controllerName = "StepController"

// Controller assigns sequential checkpoint numbers to the automation flow and,
// when enabled, blocks at each one until the operator acknowledges it on the
// input stream. Numbers advance whether or not step-through is enabled, so a
// run with pausing disabled assigns the same numbers as an enabled run.
type Controller struct {
	enabled   bool
	counter   atomic.Uint64
	skipSteps map[int]struct{}
	in        *bufio.Reader
	out       io.Writer
	logger    *zap.Logger
}

func NewController(enabled bool, skipSteps []int, in io.Reader, out io.Writer, logger *zap.Logger) *Controller {
	skip := make(map[int]struct{}, len(skipSteps))
	for _, s := range skipSteps {
		skip[s] = struct{}{}
	}

	return &Controller{
		enabled:   enabled,
		skipSteps: skip,
		in:        bufio.NewReader(in),
		out:       out,
		logger:    logger.With(zap.String(logg.Layer, controllerName)),
	}
}

func (c *Controller) Enabled() bool {
	return c.enabled
}

// Pause claims the next checkpoint number. Disabled controllers return
// immediately; skipped numbers emit a notice; everything else blocks until one
// line is read from the operator.
func (c *Controller) Pause(description string) error {
	const op = "Pause"

	stepNumber := int(c.counter.Add(1))
	if !c.enabled {
		return nil
	}

	if _, skipped := c.skipSteps[stepNumber]; skipped {
		c.logger.Info("Skipping interactive step",
			zap.Int(logg.Step, stepNumber),
			zap.String("description", description))
		fmt.Fprintf(c.out, "\n--- Skipping Step %d: %s\n", stepNumber, description)

		return nil
	}

	c.logger.Info("Interactive step",
		zap.Int(logg.Step, stepNumber),
		zap.String("description", description))
	fmt.Fprintf(c.out, "\n=== Step %d: %s ===\n", stepNumber, description)
	fmt.Fprint(c.out, "Press Enter to continue...")

	if _, err := c.in.ReadString('\n'); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "step_acknowledgment_read_failed",
			apperr.MetaStage:  apperr.StageStepthrough,
		})
	}

	return nil
}
