package router

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableHash(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "IPv4地址", addr: "192.168.1.10"},
		{name: "回环地址", addr: "127.0.0.1"},
		{name: "IPv6地址", addr: "::1"},
		{name: "空字符串", addr: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := stableHash(tt.addr)
			h2 := stableHash(tt.addr)
			assert.Equal(t, h1, h2, "同一地址哈希必须稳定")
			assert.GreaterOrEqual(t, h1, 0, "哈希取绝对值")
		})
	}
}

func TestStableHashKnownValues(t *testing.T) {
	// 31进制字符串哈希的已知值
	assert.Equal(t, 0, stableHash(""))
	assert.Equal(t, int('a'), stableHash("a"))
	assert.Equal(t, 31*int('a')+int('b'), stableHash("ab"))
}

func TestStableHashMinInt32Overflow(t *testing.T) {
	// 该字符串的31进制哈希恰为 math.MinInt32，
	// 取负仍为负数，会给槽位取模带来负下标
	h := stableHash("polygenelubricants")
	assert.Equal(t, 0, h)
	for workers := 1; workers <= 5; workers++ {
		assert.GreaterOrEqual(t, h%workers, 0)
	}
}

func TestStableHashDistribution(t *testing.T) {
	// 连续地址应落在不止一个槽位上
	const workers = 4
	seen := make(map[int]bool)
	for i := 0; i < 32; i++ {
		addr := net.IPv4(10, 0, 0, byte(i)).String()
		seen[stableHash(addr)%workers] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestConnListenerAcceptAndClose(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3000}
	l := newConnListener(addr)

	client, server := net.Pipe()
	defer client.Close()

	l.ch <- server
	got, err := l.Accept()
	require.NoError(t, err)
	assert.Same(t, server, got)

	require.NoError(t, l.Close())
	_, err = l.Accept()
	assert.ErrorIs(t, err, net.ErrClosed)

	// 关闭幂等
	assert.NoError(t, l.Close())
}

func TestConnListenerAcceptBlocksUntilClose(t *testing.T) {
	l := newConnListener(&net.TCPAddr{})

	done := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("无连接时 Accept 不应返回")
	case <-time.After(50 * time.Millisecond):
	}

	_ = l.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("关闭后 Accept 应立即返回")
	}
}
