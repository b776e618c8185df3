package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stitchwork/stitch/agent"
	"github.com/stitchwork/stitch/config"
	"github.com/stitchwork/stitch/logger"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "stitch", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().String("consumer-group", "workflowGroup", "consumer group on the execution stream")
	cmd.Flags().Int("claim-block-seconds", 1, "seconds a worker blocks waiting for a job")
	cmd.Flags().Int("node-timeout-seconds", 120, "seconds before a single node execution is failed")
	cmd.Flags().Int("run-timeout-seconds", 900, "seconds before a whole workflow run is failed")
	cmd.Flags().Int("workflow-cache-ttl-seconds", 30, "seconds a workflow definition stays cached")
	cmd.Flags().String("collector-file", "", "file to collect node execution data, empty disables collection")
	cmd.Flags().Bool("debug", false, "enable debug logging")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.ConsumerGroup = viper.GetString("consumer-group")
	c.cfg.ClaimBlockSeconds = viper.GetInt("claim-block-seconds")
	c.cfg.NodeTimeoutSeconds = viper.GetInt("node-timeout-seconds")
	c.cfg.RunTimeoutSeconds = viper.GetInt("run-timeout-seconds")
	c.cfg.WorkflowCacheTTLSec = viper.GetInt("workflow-cache-ttl-seconds")
	c.cfg.CollectorFile = viper.GetString("collector-file")
	c.cfg.Debug = viper.GetBool("debug")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	logger.Init(c.cfg.Debug)
	defer logger.Sync()

	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "stitch",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
