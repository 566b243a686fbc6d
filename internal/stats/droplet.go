package stats

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// droplet魔数：4个零字节 + 1个协议版本字节
var dropletHeader = []byte{0, 0, 0, 0, 2}

// DropletSink UDP调试通路输出端：每条指标行封装为一个数据报，前缀固定5字节魔数头。
// 目的地址在构造时解析一次，本地绑定临时端口；绑定或解析失败直接构造失败。
type DropletSink struct {
	addr *net.UDPAddr
	conn *net.UDPConn

	mu     sync.Mutex
	buffer []byte
}

// NewDropletSink 创建UDP输出端。addr 形如 host:port，解析失败返回错误。
func NewDropletSink(addr string, log *zap.Logger) (*DropletSink, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve statsd address %s: %w", addr, err)
	}
	// 绑定临时本地端口
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("bind local udp socket: %w", err)
	}
	log.Info("stats sink connect", zap.String("addr", udpAddr.String()))
	return &DropletSink{
		addr:   udpAddr,
		conn:   conn,
		buffer: append([]byte(nil), dropletHeader...),
	}, nil
}

// Emit 发送一条指标行。复用单一缓冲区，发送前截断回魔数头长度，
// 避免上一条残留数据混入本次数据报。一次Emit对应一次send系统调用，
// 不重试部分发送，结果原样返回调用方。
func (s *DropletSink) Emit(metric string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = s.buffer[:len(dropletHeader)]
	s.buffer = append(s.buffer, metric...)
	return s.conn.WriteToUDP(s.buffer, s.addr)
}

// LocalAddr 本地绑定地址
func (s *DropletSink) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close 关闭底层套接字
func (s *DropletSink) Close() error {
	return s.conn.Close()
}
