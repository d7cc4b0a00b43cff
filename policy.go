package main

import (
	"io"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Flash builds of the client must fetch a cross-domain policy before the
// runtime lets them open the game socket.
const policyFile = `<?xml version="1.0"?>
<!DOCTYPE cross-domain-policy SYSTEM "/xml/dtds/cross-domain-policy.dtd">
<cross-domain-policy>
	<site-control permitted-cross-domain-policies="all"/>
	<allow-access-from domain="*" to-ports="*"/>
</cross-domain-policy>` + string(rune(delim))

func runPolicy(port int, log *zap.Logger) {
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		log.Warn("policy listener failed", zap.Error(err))
		return
	}
	defer l.Close()
	log.Info("policy listening", zap.String("addr", l.Addr().String()))

	for {
		conn, err := l.Accept()
		if err != nil {
			log.Warn("policy accept failed", zap.Error(err))
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			buf := make([]byte, 512)
			n, err := conn.Read(buf)
			if err != nil {
				if err != io.EOF {
					log.Debug("policy read failed", zap.Error(err))
				}
				return
			}
			if strings.HasPrefix(string(buf[:n]), "<policy-file-request/>") {
				if _, err := conn.Write([]byte(policyFile)); err != nil {
					log.Debug("policy write failed", zap.Error(err))
				}
			}
		}(conn)
	}
}
