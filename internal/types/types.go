package types

// Record is one catalog entry in repos.json. Everything except RepoID is
// optional: collectors fill in what GitHub gives them and later pipeline
// stages (categorizer, velocity) add their groups when they run.
type Record struct {
	RepoID         string          `json:"repo_id"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Tracking       *Tracking       `json:"tracking,omitempty"`
	DomainSpecific *DomainSpecific `json:"domain_specific,omitempty"`
}

// Metadata mirrors what the GitHub collector extracts per repository.
type Metadata struct {
	Name        string   `json:"name,omitempty"`
	Description *string  `json:"description"`
	URL         string   `json:"url,omitempty"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    *string  `json:"language"`
	License     *string  `json:"license"`
	Topics      []string `json:"topics,omitempty"`
	CreatedAt   *string  `json:"created_at"`
	LastUpdated *string  `json:"last_updated"`
}

type Classification struct {
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory,omitempty"`
	Layer       *string `json:"layer,omitempty"`
}

type Tracking struct {
	FirstTracked    string  `json:"first_tracked,omitempty"`
	StarVelocity7d  float64 `json:"star_velocity_7d"`
	StarVelocity30d float64 `json:"star_velocity_30d,omitempty"`
	Trending        bool    `json:"trending"`
}

type DomainSpecific struct {
	ExperimentalValidation *bool    `json:"experimental_validation"`
	ExpressionSystems      []string `json:"expression_systems,omitempty"`
	GPURequirement         *string  `json:"gpu_requirement"`
	InputTypes             []string `json:"input_types,omitempty"`
	OutputFormats          []string `json:"output_formats,omitempty"`
}

// DatasetMetadata is the sidecar metadata.json written by the collector.
type DatasetMetadata struct {
	CollectedAt string `json:"collected_at"`
	RepoCount   int    `json:"repo_count"`
}
