package s3

// Config is the props schema of an S3 connection.
type Config struct {
	Bucket string `mapstructure:"bucket" validate:"required"`
	Region string `mapstructure:"region"`

	// Endpoint overrides the AWS endpoint, e.g. for MinIO or Localstack.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`

	// Static credentials. When empty, the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	SessionToken    string `mapstructure:"session_token"`

	ForcePathStyle bool `mapstructure:"force_path_style"`

	// CreateBucket lets ensure create the bucket when it does not exist.
	CreateBucket bool `mapstructure:"create_bucket"`
}

func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	// Custom endpoints almost never support virtual-hosted buckets.
	if c.Endpoint != "" {
		c.ForcePathStyle = true
	}
}
