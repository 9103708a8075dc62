package history

import "time"

// Record is the stored outcome of one rebuild-and-launch run
type Record struct {
	// DescriptorPath is the absolute path of the project descriptor
	DescriptorPath string `json:"descriptor_path" yaml:"descriptor_path"`

	// State is the final pipeline state ("done" or "failed")
	State string `json:"state" yaml:"state"`

	// Stage is the stage that failed, empty on success
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Cause is the failure message, empty on success
	Cause string `json:"cause,omitempty" yaml:"cause,omitempty"`

	// EngineVersion and EngineRoot are set once the engine was resolved
	EngineVersion string `json:"engine_version,omitempty" yaml:"engine_version,omitempty"`
	EngineRoot    string `json:"engine_root,omitempty" yaml:"engine_root,omitempty"`

	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
}

// Duration is how long the run took
func (r Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
