package codes

import (
	"context"
	"errors"

	"github.com/Norgate-AV/ueh/internal/pipeline"
	"github.com/Norgate-AV/ueh/internal/toolchain"
)

const (
	Success         = 0
	GeneralFailure  = 1
	RebuildBusy     = 2
	EditorStillOpen = 10
	CleanFailed     = 11
	InvalidProject  = 12
	EngineNotFound  = 13
	BuildFailed     = 14
	LaunchFailed    = 15
	Interrupted     = 130
)

// ErrorCodes maps ueh exit codes to their descriptions
var ErrorCodes = map[int]string{
	Success:         "Success",
	GeneralFailure:  "General failure",
	RebuildBusy:     "A rebuild is already running for this project",
	EditorStillOpen: "Unreal Editor did not close in time",
	CleanFailed:     "Cannot delete project artifacts",
	InvalidProject:  "Invalid project descriptor",
	EngineNotFound:  "Engine installation not found",
	BuildFailed:     "Project file generation failed",
	LaunchFailed:    "Cannot launch Unreal Editor",
	Interrupted:     "Interrupted",
}

// IsSuccess returns true if the exit code indicates a successful run
func IsSuccess(code int) bool {
	return code == Success
}

// GetErrorMessage returns the error message for a given exit code, or a generic message if unknown
func GetErrorMessage(code int) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}

// ExitCodeFor returns the exit code describing err. Pipeline failures map to
// the stage that failed.
func ExitCodeFor(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	if errors.Is(err, pipeline.ErrRebuildInProgress) {
		return RebuildBusy
	}

	switch pipeline.StageOf(err) {
	case pipeline.Terminating:
		return EditorStillOpen
	case pipeline.Cleaning:
		return CleanFailed
	case pipeline.Resolving:
		var notFound *toolchain.EngineNotFoundError
		if errors.As(err, &notFound) {
			return EngineNotFound
		}

		return InvalidProject
	case pipeline.Building:
		return BuildFailed
	case pipeline.Launching:
		return LaunchFailed
	}

	var notFound *toolchain.EngineNotFoundError
	if errors.As(err, &notFound) {
		return EngineNotFound
	}

	var configErr *toolchain.ConfigError
	if errors.As(err, &configErr) {
		return InvalidProject
	}

	return GeneralFailure
}
