package services

import (
	"errors"
	"io"
)

// maxUpstreamBody caps third-party response bodies; they are relayed to clients.
const maxUpstreamBody = 4 << 20

var errUpstreamBodyTooLarge = errors.New("upstream response body too large")

func readUpstreamBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxUpstreamBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxUpstreamBody {
		return nil, errUpstreamBodyTooLarge
	}
	return body, nil
}
