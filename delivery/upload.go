// Package delivery uploads printed reports to a tus (resumable upload) endpoint.
package delivery

import (
	"fmt"
	"os"

	"github.com/eventials/go-tus"
	"github.com/eventials/go-tus/memorystore"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
)

const DefaultChunkSizeMB = 10

type Config struct {
	URL         string            `json:"url" yaml:"url"`
	KeyFile     string            `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	KeyID       string            `json:"key_id,omitempty" yaml:"key_id,omitempty"`
	Issuer      string            `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Subject     string            `json:"subject,omitempty" yaml:"subject,omitempty"`
	ChunkSizeMB int64             `json:"chunk_size_mb,omitempty" yaml:"chunk_size_mb,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

func (c Config) Validate() *util.Result {
	if c.URL == "" {
		return util.MsgError("ValidateUpload", "no upload url")
	}
	return nil
}

type Uploader struct {
	Config Config
	client *tus.Client
	logger *zerolog.Logger
}

// NewUploader prepares a tus client for one report. With a key file configured every
// request carries an RS256 bearer token naming the report.
func NewUploader(cfg Config, report string, logger *zerolog.Logger) (*Uploader, *util.Result) {
	if res := cfg.Validate(); res != nil {
		return nil, res
	}
	if logger == nil {
		logger = loggers.NullLogger
	}

	store, err := memorystore.NewMemoryStore()
	if err != nil {
		return nil, util.Error("NewMemoryStore", err)
	}
	tusConfig := tus.DefaultConfig()
	chunk := cfg.ChunkSizeMB
	if chunk <= 0 {
		chunk = DefaultChunkSizeMB
	}
	tusConfig.ChunkSize = chunk * 1024 * 1024
	tusConfig.Resume = true
	tusConfig.Store = store
	for k, v := range cfg.Headers {
		tusConfig.Header.Set(k, v)
	}

	if cfg.KeyFile != "" {
		key, res := LoadPrivateKey(cfg.KeyFile)
		if res != nil {
			return nil, res.With("LoadPrivateKey")
		}
		token, res := NewUploadClaims(cfg.KeyID, cfg.Issuer, cfg.Subject, report, 0).Sign(key)
		if res != nil {
			return nil, res.With("SignToken")
		}
		tusConfig.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	client, err := tus.NewClient(cfg.URL, tusConfig)
	if err != nil {
		return nil, util.Error("NewTusClient", err)
	}
	return &Uploader{Config: cfg, client: client, logger: logger}, nil
}

// Upload sends file and returns its location on the server.
func (u *Uploader) Upload(file string) (string, *util.Result) {
	u.logger.Info().Msgf("uploading %s to %s ...", file, u.client.Url)

	f, err := os.Open(file)
	if err != nil {
		return "", util.Error("OpenFile", err)
	}
	defer f.Close()

	upload, err := tus.NewUploadFromFile(f)
	if err != nil {
		return "", util.Error("NewTusUpload", err)
	}
	uploader, err := u.client.CreateUpload(upload)
	if err != nil {
		return "", util.Error("CreateUpload", err)
	}
	location, ok := u.client.Config.Store.Get(upload.Fingerprint)
	if !ok {
		return "", util.MsgError("CreateUpload", "no file location is found")
	}
	if err := uploader.Upload(); err != nil {
		return "", util.Error("Upload", err)
	}
	u.logger.Info().Msgf("uploaded %s to %s", file, location)
	return location, nil
}
