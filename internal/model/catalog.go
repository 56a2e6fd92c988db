package model

// DeviceID, ModuleID and DeploymentID are orchestrator object identifiers.
type (
	DeviceID     = string
	ModuleID     = string
	DeploymentID = string
)

// Device is a roster entry. Address is a full base URL, e.g. http://172.15.0.21:5000.
type Device struct {
	ID      DeviceID `json:"_id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Address string   `json:"address" yaml:"address"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Module is a deployable unit registered in the orchestrator.
type Module struct {
	ID   ModuleID `json:"_id"`
	Name string   `json:"name"`
}

// Step binds one module to one device within a deployment.
type Step struct {
	Device DeviceID `json:"device"`
	Module ModuleID `json:"module"`
	Func   string   `json:"func,omitempty"`
}

// Deployment is a registered plan. Resolvable deployments have exactly two steps.
type Deployment struct {
	ID       DeploymentID `json:"_id"`
	Name     string       `json:"name"`
	Sequence []Step       `json:"sequence"`
}
