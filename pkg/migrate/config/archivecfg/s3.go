package archivecfg

// S3 : where run logs are archived once a run ends. an empty bucket disables archiving
type S3 struct {
	Bucket         string `yaml:"bucket"`
	PrefixOverride string `yaml:"prefix"`
	Region         string `yaml:"region"`
	MaxRetry       int    `yaml:"max_retry"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// Enabled : true when a bucket is configured
func (s *S3) Enabled() bool {
	return s.Bucket != ""
}
