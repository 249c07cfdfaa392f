package localnet

import (
	"github.com/code-payments/code-program/pkg/config"
	"github.com/code-payments/code-program/pkg/config/env"
	"github.com/code-payments/code-program/pkg/config/memory"
	"github.com/code-payments/code-program/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LOCALNET_"

	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 200_000

	InstructionBaseCostConfigEnvName = envConfigPrefix + "INSTRUCTION_BASE_COST"
	defaultInstructionBaseCost       = 1_000

	CostPerDataByteConfigEnvName = envConfigPrefix + "COST_PER_DATA_BYTE"
	defaultCostPerDataByte       = 1

	VerifySignaturesConfigEnvName = envConfigPrefix + "VERIFY_SIGNATURES"
	defaultVerifySignatures       = true

	RemoteAccountCacheSizeConfigEnvName = envConfigPrefix + "REMOTE_ACCOUNT_CACHE_SIZE"
	defaultRemoteAccountCacheSize       = 1024
)

type conf struct {
	computeUnitLimit       config.Uint64
	instructionBaseCost    config.Uint64
	costPerDataByte        config.Uint64
	verifySignatures       config.Bool
	remoteAccountCacheSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			computeUnitLimit:       env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
			instructionBaseCost:    env.NewUint64Config(InstructionBaseCostConfigEnvName, defaultInstructionBaseCost),
			costPerDataByte:        env.NewUint64Config(CostPerDataByteConfigEnvName, defaultCostPerDataByte),
			verifySignatures:       env.NewBoolConfig(VerifySignaturesConfigEnvName, defaultVerifySignatures),
			remoteAccountCacheSize: env.NewUint64Config(RemoteAccountCacheSizeConfigEnvName, defaultRemoteAccountCacheSize),
		}
	}
}

type testOverrides struct {
	computeUnitLimit       uint64
	disableSignatureChecks bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	computeUnitLimit := overrides.computeUnitLimit
	if computeUnitLimit == 0 {
		computeUnitLimit = defaultComputeUnitLimit
	}

	return func() *conf {
		return &conf{
			computeUnitLimit:       wrapper.NewUint64Config(memory.NewConfig(computeUnitLimit), defaultComputeUnitLimit),
			instructionBaseCost:    wrapper.NewUint64Config(memory.NewConfig(defaultInstructionBaseCost), defaultInstructionBaseCost),
			costPerDataByte:        wrapper.NewUint64Config(memory.NewConfig(defaultCostPerDataByte), defaultCostPerDataByte),
			verifySignatures:       wrapper.NewBoolConfig(memory.NewConfig(!overrides.disableSignatureChecks), defaultVerifySignatures),
			remoteAccountCacheSize: wrapper.NewUint64Config(memory.NewConfig(16), defaultRemoteAccountCacheSize),
		}
	}
}
