// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package experiment

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/pkg/errors"
)

const (
	metadataKindEmpty   = ""
	metadataKindFlags   = "flags"
	metadataKindEnviron = "environ"
	metadataKindOutcome = "outcome"
)

var (
	cassandraAddressFlag           = conf.NewStringFlag("cassandra_address", "Address of Cassandra DB endpoint for experiment metadata. Metadata is not recorded when empty.", "")
	cassandraUsernameFlag          = conf.NewStringFlag("cassandra_username", "The user name which will be presented when connecting to the cluster", "")
	cassandraPasswordFlag          = conf.NewStringFlag("cassandra_password", "The password which will be presented when connecting to the cluster", "")
	cassandraConnectionTimeoutFlag = conf.NewDurationFlag("cassandra_timeout", "Time to wait for connection to Cassandra", 0)
	cassandraSslEnabledFlag        = conf.NewBoolFlag("cassandra_ssl", "Use SSL to connect to Cassandra", false)
	cassandraSslHostValidationFlag = conf.NewBoolFlag("cassandra_ssl_host_validation", "Validate host when SSL is enabled", false)
	cassandraSslCAPathFlag         = conf.NewStringFlag("cassandra_ssl_ca_path", "Path to CA certificate", "")
	cassandraSslCertPathFlag       = conf.NewStringFlag("cassandra_ssl_cert_path", "Path to client certificate", "")
	cassandraSslKeyPathFlag        = conf.NewStringFlag("cassandra_ssl_key_path", "Path to client private key", "")
)

// MetadataConfig encodes the settings for connecting to the database.
type MetadataConfig struct {
	CassandraAddress           string        `yaml:"address"`
	CassandraUsername          string        `yaml:"username"`
	CassandraPassword          string        `yaml:"password"`
	CassandraConnectionTimeout time.Duration `yaml:"timeout"`
	CassandraSslEnabled        bool          `yaml:"ssl"`
	CassandraSslHostValidation bool          `yaml:"ssl_host_validation"`
	CassandraSslCAPath         string        `yaml:"ssl_ca_path"`
	CassandraSslCertPath       string        `yaml:"ssl_cert_path"`
	CassandraSslKeyPath        string        `yaml:"ssl_key_path"`
}

// Enabled returns true when Cassandra address is configured.
func (c MetadataConfig) Enabled() bool {
	return c.CassandraAddress != ""
}

// DefaultMetadataConfig returns a setup which use a Cassandra cluster running on localhost
// without any authentication or encryption.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		CassandraAddress: "127.0.0.1",
	}
}

// MetadataConfigFromFlags applies the Cassandra settings from the command line flags and
// environment variables.
func MetadataConfigFromFlags() MetadataConfig {
	return MetadataConfig{
		CassandraAddress:           cassandraAddressFlag.Value(),
		CassandraUsername:          cassandraUsernameFlag.Value(),
		CassandraPassword:          cassandraPasswordFlag.Value(),
		CassandraConnectionTimeout: cassandraConnectionTimeoutFlag.Value(),
		CassandraSslEnabled:        cassandraSslEnabledFlag.Value(),
		CassandraSslHostValidation: cassandraSslHostValidationFlag.Value(),
		CassandraSslCAPath:         cassandraSslCAPathFlag.Value(),
		CassandraSslCertPath:       cassandraSslCertPathFlag.Value(),
		CassandraSslKeyPath:        cassandraSslKeyPathFlag.Value(),
	}
}

// MetadataMap encodes the key value pairs to be stored in Cassandra.
type MetadataMap map[string]string

// Metadata is a helper struct which keeps the Cassandra session alive, holds the active configuration
// and the session id to tag the metadata with.
type Metadata struct {
	sessionID string
	config    MetadataConfig
	session   *gocql.Session
}

// NewMetadata returns the Metadata helper from a session id and configuration.
// Connect() still needs to be called to get an active Cassandra session.
func NewMetadata(sessionID string, config MetadataConfig) *Metadata {
	return &Metadata{
		sessionID: sessionID,
		config:    config,
	}
}

func sslOptions(config MetadataConfig) *gocql.SslOptions {
	return &gocql.SslOptions{
		EnableHostVerification: config.CassandraSslHostValidation,
		CaPath:                 config.CassandraSslCAPath,
		CertPath:               config.CassandraSslCertPath,
		KeyPath:                config.CassandraSslKeyPath,
	}
}

func (m *Metadata) cluster() *gocql.ClusterConfig {
	cluster := gocql.NewCluster(m.config.CassandraAddress)
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	if m.config.CassandraConnectionTimeout > 0 {
		cluster.Timeout = m.config.CassandraConnectionTimeout
		cluster.ConnectTimeout = m.config.CassandraConnectionTimeout
	}

	if m.config.CassandraUsername != "" && m.config.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: m.config.CassandraUsername,
			Password: m.config.CassandraPassword,
		}
	}

	if m.config.CassandraSslEnabled {
		cluster.SslOpts = sslOptions(m.config)
	}
	return cluster
}

// Connect creates a session to the Cassandra cluster and ensures schema exists.
// This function should only be called once.
func (m *Metadata) Connect() error {
	session, err := m.cluster().CreateSession()
	if err != nil {
		return errors.Wrapf(err, "cannot connect to Cassandra at %q", m.config.CassandraAddress)
	}
	m.session = session

	// NOTE: Schema consistency check is ignored by CREATE query, so every CREATE is
	// followed by a SELECT on 'system_schema.keyspaces'.
	for _, query := range []string{
		"CREATE KEYSPACE IF NOT EXISTS rig WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};",
		"SELECT * FROM system_schema.keyspaces;",
		"CREATE TABLE IF NOT EXISTS rig.metadata (session_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((session_id), timeuuid),) WITH CLUSTERING ORDER BY (timeuuid DESC);",
		"SELECT * FROM system_schema.keyspaces;",
	} {
		if err := session.Query(query).Exec(); err != nil {
			return errors.Wrap(err, "cannot prepare metadata schema")
		}
	}

	return nil
}

func (m *Metadata) storeMap(metadata MetadataMap, kind string) error {
	if m.session == nil {
		return errors.New("metadata is not connected")
	}
	return m.session.Query(`INSERT INTO rig.metadata (session_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`,
		m.sessionID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
}

// Record stores a key and value and associates with the session id.
func (m *Metadata) Record(key string, value string) error {
	return m.storeMap(MetadataMap{key: value}, metadataKindEmpty)
}

// RecordMap stores a key and value map and associates with the session id.
func (m *Metadata) RecordMap(metadata MetadataMap) error {
	return m.storeMap(metadata, metadataKindEmpty)
}

// RecordFlags saves whole flags based configuration in the metadata information.
func (m *Metadata) RecordFlags() error {
	return m.storeMap(conf.GetFlags(), metadataKindFlags)
}

// RecordEnv adds all OS Environment variables that starts with prefix 'prefix'
// in the metadata information.
func (m *Metadata) RecordEnv(prefix string) error {
	return m.storeMap(EnvironMap(prefix, os.Environ()), metadataKindEnviron)
}

// RecordOutcome stores final state of experiment and the aborting error, if any.
func (m *Metadata) RecordOutcome(state State, exitCode int, err error) error {
	return m.storeMap(OutcomeMap(state, exitCode, err), metadataKindOutcome)
}

// EnvironMap returns variables from environ which names start with prefix.
func EnvironMap(prefix string, environ []string) MetadataMap {
	metadata := MetadataMap{}
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			if len(fields) == 2 {
				metadata[fields[0]] = fields[1]
			}
		}
	}
	return metadata
}

// OutcomeMap describes final state of experiment.
func OutcomeMap(state State, exitCode int, err error) MetadataMap {
	metadata := MetadataMap{
		"state":     state.String(),
		"exit_code": strconv.Itoa(exitCode),
	}
	if err != nil {
		metadata["error"] = err.Error()
	}
	return metadata
}

// GetGroup retrieves single kind from the database.
// Returns error if no kind or too many groups found.
func (m *Metadata) GetGroup(kind string) (MetadataMap, error) {
	if m.session == nil {
		return nil, errors.New("metadata is not connected")
	}

	var metadata MetadataMap
	maps := []MetadataMap{}

	iter := m.session.Query(`SELECT metadata FROM rig.metadata WHERE session_id = ? AND kind = ? ALLOW FILTERING`, m.sessionID, kind).Iter()
	for iter.Scan(&metadata) {
		maps = append(maps, metadata)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	// Make sure that only one map within session exists.
	if len(maps) != 1 {
		return nil, errors.Errorf("cannot retrieve metadata for session ID %q and %q kind", m.sessionID, kind)
	}
	return maps[0], nil
}

// Close closes the Cassandra session.
func (m *Metadata) Close() error {
	if m.session != nil {
		m.session.Close()
	}
	return nil
}
