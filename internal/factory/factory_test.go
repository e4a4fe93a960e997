package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mikey/fraudguard/internal/adapters/store"
	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		values map[string]any
		check  func(t *testing.T, s any)
	}{
		{"memory", map[string]any{"store.type": "memory"}, func(t *testing.T, s any) {
			assert.IsType(t, &store.MemoryStore{}, s)
		}},
		{"sqlite", map[string]any{"store.type": "sqlite", "store.sqlite_path": filepath.Join(t.TempDir(), "s.db")}, nil},
		{"redis", map[string]any{"store.type": "redis", "store.redis_addr": mr.Addr()}, func(t *testing.T, s any) {
			assert.IsType(t, &store.RedisStore{}, s)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStoreFactory(testConfig(tt.values), logger).CreateStore(ctx)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set(ctx, map[string]string{"k": "v"}))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", got["k"])

			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestCreateStore_Unsupported(t *testing.T) {
	_, err := NewStoreFactory(testConfig(map[string]any{"store.type": "etcd"}), zap.NewNop()).CreateStore(context.Background())
	assert.ErrorContains(t, err, "unsupported store type: etcd")
}

func TestCreateBus(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	f := NewBusFactory(testConfig(nil), logger)
	assert.True(t, f.IsLocal())
	assert.Equal(t, bus.NewTopics("fraudguard"), f.Topics())
	b, err := f.CreateBus(ctx)
	require.NoError(t, err)
	assert.IsType(t, &bus.MemoryBus{}, b)
	require.NoError(t, b.Close())

	mr := miniredis.RunT(t)
	f = NewBusFactory(testConfig(map[string]any{"bus.type": "redis", "bus.redis_addr": mr.Addr(), "bus.prefix": "x"}), logger)
	assert.False(t, f.IsLocal())
	assert.Equal(t, "x:actions", f.Topics().Actions)
	b, err = f.CreateBus(ctx)
	require.NoError(t, err)
	assert.IsType(t, &bus.RedisBus{}, b)
	require.NoError(t, b.Close())

	_, err = NewBusFactory(testConfig(map[string]any{"bus.type": "kafka"}), logger).CreateBus(ctx)
	assert.ErrorContains(t, err, "unsupported bus type")
}

func TestCreateClient(t *testing.T) {
	logger := zap.NewNop()

	c, err := NewAPIFactory(testConfig(nil), logger).CreateClient()
	require.NoError(t, err)
	assert.NotNil(t, c)

	for _, bad := range []string{"", "localhost:8000", "://nope"} {
		_, err := NewAPIFactory(testConfig(map[string]any{"api.base_url": bad}), logger).CreateClient()
		assert.Error(t, err, bad)
	}
}

func TestCreateIntake(t *testing.T) {
	logger := zap.NewNop()
	tpf := NewTextProcessorFactory(logger)
	ex := tpf.CreateExtractor(tpf.CreateTextProcessor())
	b := bus.NewMemoryBus(logger, 1)
	defer b.Close()
	requester := bus.NewRequester(b, bus.NewTopics(""), logger)

	_, err := NewIntakeFactory(testConfig(nil), logger, requester, ex).CreateIntake()
	assert.ErrorIs(t, err, ErrIntakeDisabled)

	in, err := NewIntakeFactory(testConfig(map[string]any{"intake.enabled": true}), logger, requester, ex).CreateIntake()
	require.NoError(t, err)
	assert.NotNil(t, in)

	_, err = NewIntakeFactory(testConfig(map[string]any{"intake.enabled": true, "intake.timeout": "x"}), logger, requester, ex).CreateIntake()
	assert.Error(t, err)
}
