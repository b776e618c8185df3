package config

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig         RedisConfig
	HttpPort            int
	StorageType         StorageType
	ConsumerGroup       string
	ClaimBlockSeconds   int
	NodeTimeoutSeconds  int
	RunTimeoutSeconds   int
	WorkflowCacheTTLSec int
	CollectorFile       string
	Debug               bool
}

type RedisConfig struct {
	Addrs     []string
	Namespace string
}
