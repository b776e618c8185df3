package redis

type Config struct {
	Addrs     []string
	Namespace string
	PoolSize  int
	Password  string
	// ConsumerGroup names the claim-tracking group on the execution
	// stream. All workers of a deployment share it.
	ConsumerGroup string
	// ClaimBlockTime caps how long a single Claim call blocks, seconds.
	ClaimBlockSeconds int
}
