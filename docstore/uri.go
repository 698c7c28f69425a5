package docstore

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const uriScheme = "docstore://"

// ParseURI parses a connection string of the form
//
//	docstore://[user:pass@]host1[:port1][,host2[:port2],...][/database][?param=value&...]
//
// into Options. Hosts given without a port get DefaultPort. Supported query
// parameters: topology (single|replicaset|sharded), heartbeatIntervalMS,
// connectTimeoutMS.
func ParseURI(uri string) (Options, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return Options{}, errors.Join(ErrInvalidURI, fmt.Errorf("scheme must be %q", uriScheme))
	}

	rest := strings.TrimPrefix(uri, uriScheme)

	rest, query, err := splitQuery(rest)
	if err != nil {
		return Options{}, err
	}

	rest, database := splitPath(rest)

	rest, username, password, err := splitCredentials(rest)
	if err != nil {
		return Options{}, err
	}

	hosts, err := splitHosts(rest)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Hosts:    hosts,
		Database: database,
		Username: username,
		Password: password,
	}

	if err = applyURIParams(&opts, query); err != nil {
		return Options{}, err
	}

	return opts, nil
}

func splitQuery(rest string) (string, url.Values, error) {
	before, after, found := strings.Cut(rest, "?")
	if !found {
		return rest, url.Values{}, nil
	}

	query, err := url.ParseQuery(after)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidURI, err)
	}

	return before, query, nil
}

func splitPath(rest string) (string, string) {
	before, after, found := strings.Cut(rest, "/")
	if !found {
		return rest, ""
	}

	return before, after
}

func splitCredentials(rest string) (remainder string, username string, password string, err error) {
	before, after, found := strings.Cut(rest, "@")
	if !found {
		return rest, "", "", nil
	}

	username, password, _ = strings.Cut(before, ":")
	if username == "" {
		return "", "", "", errors.Join(ErrInvalidURI, fmt.Errorf("credentials given without a username"))
	}

	return after, username, password, nil
}

func splitHosts(rest string) ([]string, error) {
	if rest == "" {
		return nil, errors.Join(ErrInvalidURI, ErrNoHostsConfigured)
	}

	parts := strings.Split(rest, ",")
	hosts := make([]string, 0, len(parts))

	for _, part := range parts {
		host := strings.TrimSpace(part)
		if host == "" {
			return nil, errors.Join(ErrInvalidURI, fmt.Errorf("empty host in host list"))
		}

		if !strings.Contains(host, ":") {
			host = host + ":" + DefaultPort
		}

		hosts = append(hosts, host)
	}

	return hosts, nil
}

func applyURIParams(opts *Options, query url.Values) error {
	if topology := query.Get("topology"); topology != "" {
		kind, err := ParseTopologyKind(topology)
		if err != nil {
			return err
		}

		opts.Topology = kind
	}

	if heartbeat := query.Get("heartbeatIntervalMS"); heartbeat != "" {
		millis, err := strconv.Atoi(heartbeat)
		if err != nil || millis <= 0 {
			return errors.Join(ErrInvalidURI, fmt.Errorf("invalid heartbeatIntervalMS value %q", heartbeat))
		}

		opts.HeartbeatInterval = time.Duration(millis) * time.Millisecond
	}

	if connect := query.Get("connectTimeoutMS"); connect != "" {
		millis, err := strconv.Atoi(connect)
		if err != nil || millis <= 0 {
			return errors.Join(ErrInvalidURI, fmt.Errorf("invalid connectTimeoutMS value %q", connect))
		}

		opts.ConnectTimeout = time.Duration(millis) * time.Millisecond
	}

	return nil
}

// ParseTopologyKind maps a topology classification literal to its TopologyKind.
func ParseTopologyKind(value string) (TopologyKind, error) {
	switch strings.ToLower(value) {
	case "single":
		return TopologySingle, nil
	case "replicaset":
		return TopologyReplicaSet, nil
	case "sharded":
		return TopologySharded, nil
	default:
		return 0, errors.Join(ErrInvalidURI, fmt.Errorf("unknown topology %q", value))
	}
}
