package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
)

func WaitForTCP(addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(context.Background(), "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

// ExtractFromDBURL returns host:port of a postgresql:// url.
// The port defaults to 5432.
func ExtractFromDBURL(url string) string {
	return extractAddr(
		"^postgres(ql)?://(.*@)?(?P<addr>(?P<host>[^:/?]+)(:(?P<port>\\d+))?)(/.*)?$",
		url, 5432)
}

// ExtractFromNatsURL returns host:port of a nats:// url.
// The port defaults to 4222.
func ExtractFromNatsURL(url string) string {
	return extractAddr(
		"^(nats|tls)://(.*@)?(?P<addr>(?P<host>[^:/,]+)(:(?P<port>\\d+))?)(/.*)?$",
		url, 4222)
}

func extractAddr(regEx, url string, defaultPort int) string {
	param := resolveRegex(regEx, url)
	if len(param) == 0 || param["addr"] == "" {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	}
	return fmt.Sprintf("%s:%d", param["host"], defaultPort)
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)

	paramsMap = make(map[string]string)
	if match == nil {
		return paramsMap
	}
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && i < len(match) && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
