package ember

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emberengine/ember/gpu"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	level string
	msg   string
}

func (l *recordingLogger) DebugEnabled() bool        { return true }
func (l *recordingLogger) SetDebug(bool)             {}
func (l *recordingLogger) Debugf(f string, a ...any) { l.level, l.msg = "DEBUG", fmt.Sprintf(f, a...) }
func (l *recordingLogger) Infof(f string, a ...any)  { l.level, l.msg = "INFO", fmt.Sprintf(f, a...) }
func (l *recordingLogger) Warnf(f string, a ...any)  { l.level, l.msg = "WARN", fmt.Sprintf(f, a...) }
func (l *recordingLogger) Errorf(f string, a ...any) { l.level, l.msg = "ERROR", fmt.Sprintf(f, a...) }

func TestLogGPUError_DeviceLostWarnsInsteadOfErrors(t *testing.T) {
	l := &recordingLogger{}
	LogGPUError(l, &gpu.ErrDeviceLost{Reason: "surface lost"})
	require.Equal(t, "WARN", l.level)
	require.Contains(t, l.msg, "surface lost")
}

func TestLogGPUError_VRAMBudgetExceededReportsFields(t *testing.T) {
	l := &recordingLogger{}
	LogGPUError(l, &gpu.ErrVRAMBudgetExceeded{Category: gpu.BufferUsageVertex, Requested: 100, Used: 50, Budget: 120})
	require.Equal(t, "ERROR", l.level)
	require.Contains(t, l.msg, "100")
	require.Contains(t, l.msg, "120")
}

func TestLogGPUError_UnrecognizedErrorFallsBackToErrorf(t *testing.T) {
	l := &recordingLogger{}
	LogGPUError(l, errors.New("boom"))
	require.Equal(t, "ERROR", l.level)
	require.Contains(t, l.msg, "boom")
}
