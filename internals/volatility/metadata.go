package volatility

// TaskName identifies this worker's task in the platform's registry.
const TaskName = "memforge-worker-volatility.tasks.volatility"

// Canonical task_config keys. Each value is looked up under exactly one key.
const (
	ConfigKeyYaraRules    = "Yara rules"
	ConfigKeyOSGroup      = "OS group"
	ConfigKeyOutputFormat = "Output format"
)

type ConfigField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
}

type Metadata struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Description string        `json:"description"`
	TaskConfig  []ConfigField `json:"task_config"`
}

// TaskMetadata is what the platform reads when registering this worker.
func TaskMetadata() Metadata {
	return Metadata{
		Name:        TaskName,
		DisplayName: "Volatility",
		Description: "Run a pre-defined set of Volatility3 plugins on a memory image (see options).",
		TaskConfig: []ConfigField{
			{
				Name:        ConfigKeyYaraRules,
				Label:       "rule test { condition: true }",
				Description: "Run these Yara rules using the YaraScan plugin.",
				Type:        "textarea",
				Required:    false,
			},
			{
				Name:        ConfigKeyOSGroup,
				Label:       "win,lin,macos",
				Default:     "win",
				Description: "OS group of plugins to run.",
				Type:        "text",
				Required:    true,
			},
			{
				Name:        ConfigKeyOutputFormat,
				Label:       "txt,json,md",
				Default:     "txt",
				Description: "Output format for the results.",
				Type:        "text",
				Required:    true,
			},
		},
	}
}
