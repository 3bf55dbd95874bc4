package model

// EngineState represents the escalation state of an engine
type EngineState string

const (
	EngineStateEscalating EngineState = "escalating"
	EngineStateConverged  EngineState = "converged"
)

// EngineTarget describes one engine under benchmark
type EngineTarget struct {
	Name         string   `json:"name" mapstructure:"name"`
	Binary       string   `json:"binary" mapstructure:"binary"`
	StatsBinary  string   `json:"stats_binary" mapstructure:"stats_binary"`
	ConfigFile   string   `json:"config_file" mapstructure:"config_file"`
	ServicesFile string   `json:"services_file" mapstructure:"services_file"`
	ReportDir    string   `json:"report_dir" mapstructure:"report_dir"`
	VarDir       string   `json:"var_dir" mapstructure:"var_dir"`
	VarSubdirs   []string `json:"var_subdirs" mapstructure:"var_subdirs"`
}

// ConvergenceState tracks the last observed latency of an engine
type ConvergenceState struct {
	Engine    string  `json:"engine"`
	Latency   float64 `json:"latency"`
	Converged bool    `json:"converged"`
}

// Observe records a latency and marks the engine converged once it reaches timeout.
// A converged state never reverts.
func (s *ConvergenceState) Observe(latency, timeout float64) {
	if s.Converged {
		return
	}
	s.Latency = latency
	if latency >= timeout {
		s.Converged = true
	}
}

// State returns the escalation state
func (s *ConvergenceState) State() EngineState {
	if s.Converged {
		return EngineStateConverged
	}
	return EngineStateEscalating
}
