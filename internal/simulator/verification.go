package simulator

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/powerstream/internal/domain/model"
)

// Report is what one instance's replay contained.
type Report struct {
	Instance  string
	SessionID string
	Samples   int
	Past      int
	Active    string
	Complete  bool
}

// frame is the union of every JSON object the stream carries.
type frame struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	SessionID string `json:"sessionId"`
}

// Verify subscribes to the instance stream and reads until the replay holds
// every sample and tool change of s, or ctx ends. An incomplete report is
// returned alongside ctx's error.
func (c *HTTPClient) Verify(ctx context.Context, s Session, prefix string) (Report, error) {
	rep := Report{Instance: s.Instance}

	u := c.baseURL + "/sse?instance=" + url.QueryEscape(s.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return rep, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream has no end; only ctx bounds it.
	stream := &http.Client{Transport: c.client.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return rep, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rep, fmt.Errorf("subscribe %s: status %d", s.Instance, resp.StatusCode)
	}

	wantTool := ""
	if s.ToolChanges > 0 {
		wantTool = fmt.Sprintf("T%d", s.ToolChanges)
	}

	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return rep, fmt.Errorf("stream for %s ended early", s.Instance)
			}
			return rep, err
		}
		data, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data: ")
		if !ok {
			continue
		}
		var f frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return rep, fmt.Errorf("decode frame: %w", err)
		}
		switch {
		case f.ID == "" && f.SessionID != "":
			rep.SessionID = f.SessionID
		case f.ID == model.SignalToolIdentPast:
			rep.Past++
		case f.ID == model.SignalToolIdent:
			rep.Active = f.Tool
		case strings.HasPrefix(f.ID, prefix):
			rep.Samples++
		}
		if rep.Samples >= s.Samples && rep.Past >= s.ExpectedPast() && rep.Active == wantTool {
			rep.Complete = true
			return rep, nil
		}
	}
}
