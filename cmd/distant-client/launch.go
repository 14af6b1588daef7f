package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/distanthq/distant/cmd/internal/managerproto"
	"github.com/distanthq/distant/common/transport"
	"github.com/distanthq/distant/common/util"
)

// requestManagerLaunch dials the local distant-manager and asks it to
// start a distant-server, the same request-write/response-read shape as
// daemon/client/client.go's RequestKrdVersionOver, generalized from a
// GET /version with a bare version string body to a POST /launch with a
// JSON body.
func requestManagerLaunch() (string, error) {
	path, err := transport.UserDirFile(transport.DefaultManagerSocketName)
	if err != nil {
		return "", err
	}
	conn, err := transport.Dial(transport.Endpoint{Path: path})
	if err != nil {
		return "", util.ErrConnectingToManager
	}
	defer conn.Close()

	req, err := http.NewRequest("POST", "/launch", nil)
	if err != nil {
		return "", err
	}
	if err := req.Write(conn); err != nil {
		return "", util.ErrConnectingToManager
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return "", util.ErrConnectingToManager
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("distant-manager: launch failed: %s", string(body))
	}

	var launched managerproto.LaunchResponse
	if err := json.NewDecoder(resp.Body).Decode(&launched); err != nil {
		return "", err
	}
	return launched.Endpoint, nil
}
