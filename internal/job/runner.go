package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// RunResult is the single message a started tool sends when it exits.
type RunResult struct {
	ExitCode int
	Err      error
	Duration time.Duration
}

// Runner starts the external extraction tool. The returned channel yields
// exactly one RunResult and is then closed.
type Runner interface {
	Start(ctx context.Context, documentPath, logPath string) (<-chan RunResult, error)
}

// ExecRunner runs Command with the document path appended, writing the
// combined output to the log file. There is no timeout: the tool runs
// until it exits.
type ExecRunner struct {
	Command []string
}

func (r ExecRunner) Start(ctx context.Context, documentPath, logPath string) (<-chan RunResult, error) {
	if len(r.Command) == 0 {
		return nil, errors.New("no extraction tool configured")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening process log: %w", err)
	}

	args := append(append([]string{}, r.Command[1:]...), documentPath)
	cmd := exec.Command(r.Command[0], args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, err
	}

	done := make(chan RunResult, 1)
	go func() {
		defer close(done)
		err := cmd.Wait()
		logFile.Close()
		result := RunResult{Duration: time.Since(start), Err: err}
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			result.ExitCode = -1
		}
		done <- result
	}()
	return done, nil
}
