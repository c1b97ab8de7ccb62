package settings

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ProxyKind is the proxy_type tag of a ProxyConfig
type ProxyKind string

const (
	ProxyHTTP   ProxyKind = "http"
	ProxySOCKS5 ProxyKind = "socks5"
	ProxyPAC    ProxyKind = "pac"
)

// MaxPort is the largest valid TCP port
const MaxPort = 65535

var (
	ErrUnknownProxyKind = errors.New("unknown proxy type")
	ErrPACURLRequired   = errors.New("pac proxy requires a url")
	ErrPACHasEndpoint   = errors.New("pac proxy must not carry host or port")
	ErrHostRequired     = errors.New("proxy host is required")
	ErrPortOutOfRange   = errors.New("proxy port must be between 1 and 65535")
	ErrURLNotAllowed    = errors.New("only pac proxies carry a url")
)

// Valid reports whether k is one of the three supported variants
func (k ProxyKind) Valid() bool {
	switch k {
	case ProxyHTTP, ProxySOCKS5, ProxyPAC:
		return true
	}
	return false
}

func (k ProxyKind) String() string { return string(k) }

// Endpoint is the typed view of a proxy's connection data.
// It is either a HostPort (http, socks5) or a PACScript (pac).
type Endpoint interface {
	Kind() ProxyKind
	Address() string
	endpoint()
}

// HostPort is a forward proxy reachable at host:port
type HostPort struct {
	Scheme   ProxyKind
	Host     string
	Port     int
	Username *string
	Password *string
}

// PACScript is a proxy auto-config script location
type PACScript struct {
	URL      string
	Username *string
	Password *string
}

func (h HostPort) Kind() ProxyKind  { return h.Scheme }
func (PACScript) Kind() ProxyKind   { return ProxyPAC }
func (HostPort) endpoint()          {}
func (PACScript) endpoint()         {}
func (h HostPort) Address() string  { return net.JoinHostPort(h.Host, strconv.Itoa(h.Port)) }
func (p PACScript) Address() string { return p.URL }

// Endpoint returns the typed view of the flat record
func (p ProxyConfig) Endpoint() Endpoint {
	if p.ProxyType == ProxyPAC {
		return PACScript{URL: Deref(p.URL), Username: p.Username, Password: p.Password}
	}
	return HostPort{
		Scheme:   p.ProxyType,
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
	}
}

// NewProxyConfig flattens a typed endpoint into the persisted shape.
// PAC records get host "" and port 0; host/port records get no url.
func NewProxyConfig(id, name string, e Endpoint) ProxyConfig {
	cfg := ProxyConfig{ID: id, Name: name, ProxyType: e.Kind()}

	switch ep := e.(type) {
	case PACScript:
		cfg.URL = StringPtr(ep.URL)
		cfg.Username = cloneString(ep.Username)
		cfg.Password = cloneString(ep.Password)
	case HostPort:
		cfg.Host = ep.Host
		cfg.Port = ep.Port
		cfg.Username = cloneString(ep.Username)
		cfg.Password = cloneString(ep.Password)
	}

	return cfg
}

// Validate checks the storage invariant of the flat record
func (p ProxyConfig) Validate() error {
	if !p.ProxyType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownProxyKind, p.ProxyType)
	}

	if p.ProxyType == ProxyPAC {
		if Deref(p.URL) == "" {
			return ErrPACURLRequired
		}
		if p.Host != "" || p.Port != 0 {
			return ErrPACHasEndpoint
		}
		return nil
	}

	if p.Host == "" {
		return ErrHostRequired
	}
	if p.Port < 1 || p.Port > MaxPort {
		return ErrPortOutOfRange
	}
	if p.URL != nil {
		return ErrURLNotAllowed
	}
	return nil
}

// Address returns a display address: host:port, or the PAC url
func (p ProxyConfig) Address() string {
	return p.Endpoint().Address()
}
