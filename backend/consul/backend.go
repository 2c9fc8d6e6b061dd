// Package consul stores notebooks in the HashiCorp Consul KV store.
//
// Objects are stored directly in Consul KV with their storage path as the
// key. Each entry is a small JSON envelope carrying the content and its
// modify time, since Consul KV keeps no timestamps of its own. Directories
// are virtual and exist only as key prefixes.
//
// Consul KV limits values to 512KB, which suits configuration-sized
// notebooks only.
package consul

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/averok/notestore/content"
)

// maxValueSize stays below the Consul KV limit of 512KB to leave room for
// the envelope overhead.
const maxValueSize = 500 * 1024

type ConsulStorage struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulStorageConfig
}

// ConsulStorageConfig contains configuration options for the Consul backend.
type ConsulStorageConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "notestore")
	Prefix string
}

// envelope is the KV value layout. Content marshals as base64.
type envelope struct {
	Content    []byte `json:"content"`
	ModifyTime int64  `json:"modify_time"`
}

// NewConsulStorage creates a Consul-backed notebook store.
func NewConsulStorage(config *ConsulStorageConfig) (*ConsulStorage, error) {
	if config == nil {
		config = &ConsulStorageConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	if config.Prefix == "" {
		config.Prefix = "notestore"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulStorage{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Returns the identifier name defined for this backend.
func (*ConsulStorage) Name() string {
	return "consul"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (cs *ConsulStorage) Open(ctx context.Context) error {
	// Nothing to initialize - Consul handles connections
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (cs *ConsulStorage) Close(ctx context.Context) error {
	// Nothing to clean up - Consul client is stateless
	return nil
}

// buildKey constructs the full Consul KV key for a storage path.
func (cs *ConsulStorage) buildKey(path string) string {
	key := strings.TrimPrefix(content.StripTrailingSlash(content.EnsureLeadingSlash(path)), "/")

	prefix := strings.Trim(cs.config.Prefix, "/")
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}

	return prefix + "/" + key
}

// toStoragePath converts a Consul KV key back into a storage path.
func (cs *ConsulStorage) toStoragePath(consulKey string) string {
	prefix := strings.Trim(cs.config.Prefix, "/")
	if prefix != "" {
		consulKey = strings.TrimPrefix(strings.TrimPrefix(consulKey, prefix), "/")
	}

	return content.EnsureLeadingSlash(consulKey)
}

func decodeEnvelope(pair *api.KVPair) (*envelope, error) {
	env := &envelope{}
	if err := json.Unmarshal(pair.Value, env); err != nil {
		return nil, err
	}

	return env, nil
}

func encodeEnvelope(data []byte) ([]byte, error) {
	return json.Marshal(&envelope{
		Content:    data,
		ModifyTime: time.Now().Unix(),
	})
}
