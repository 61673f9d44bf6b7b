// Package serve exposes a matcher over a line-delimited JSON protocol, for
// callers that keep one process alive and stream content through it.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
)

// Version is the protocol version announced in the ready message.
const Version = "1.0.0"

// maxLine bounds a single request line.
const maxLine = 64 << 20

// Server answers scan requests read from in on out.
type Server struct {
	m       *matcher.Matcher
	in      io.Reader
	enc     *json.Encoder
	workers int
	logger  *slog.Logger
	scanned int64
}

// NewServer creates a server. workers bounds the parallelism of
// scan_batch requests; zero means one per CPU.
func NewServer(m *matcher.Matcher, in io.Reader, out io.Writer, workers int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{m: m, in: in, enc: json.NewEncoder(out), workers: workers, logger: logger}
}

// Run sends the ready message, then serves requests until a close
// request, end of input or cancellation of ctx. Requests already read when
// input ends are still answered. If the input is an io.Closer it is closed
// on return, which releases the reader blocked on it; otherwise that reader
// stays parked until the next line or end of input.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeInput()

	if err := s.reply("ready", ReadyData{Version: Version, Rules: s.m.Stats().Rules}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reqs := make(chan Request)
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.read(ctx, reqs)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-reqs:
			done, err := s.handle(ctx, req)
			if err != nil || done {
				return err
			}
		case err := <-readErr:
			if err != nil {
				s.logger.Warn("reading requests", "error", err)
				return s.fail("decode", err)
			}
			return nil
		}
	}
}

func (s *Server) closeInput() {
	c, ok := s.in.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		s.logger.Debug("closing input", "error", err)
	}
}

// read decodes requests until input ends. reqs is unbuffered, so every
// request read is handed over before read returns.
func (s *Server) read(ctx context.Context, reqs chan<- Request) error {
	sc := bufio.NewScanner(s.in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			return err
		}
		select {
		case reqs <- req:
		case <-ctx.Done():
			return nil
		}
	}
	return sc.Err()
}

func (s *Server) handle(ctx context.Context, req Request) (bool, error) {
	s.logger.Debug("request", "type", req.Type, "size", len(req.Payload))
	switch req.Type {
	case "scan":
		var item Item
		if err := json.Unmarshal(req.Payload, &item); err != nil {
			return false, s.fail(req.Type, err)
		}
		results, err := s.m.Match([]byte(item.Content))
		if err != nil {
			return false, s.fail(req.Type, err)
		}
		s.scanned++
		return false, s.reply(req.Type, toScanResult(item, results))
	case "scan_batch":
		var p ScanBatchPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return false, s.fail(req.Type, err)
		}
		contents := make([][]byte, len(p.Items))
		for i, it := range p.Items {
			contents[i] = []byte(it.Content)
		}
		all, err := s.m.MatchAll(ctx, contents, s.workers)
		if err != nil {
			return false, s.fail(req.Type, err)
		}
		out := make([]ScanResult, len(p.Items))
		for i, it := range p.Items {
			out[i] = toScanResult(it, all[i])
		}
		s.scanned += int64(len(p.Items))
		return false, s.reply(req.Type, out)
	case "stats":
		st := s.m.Stats()
		return false, s.reply(req.Type, StatsData{
			Rules:         st.Rules,
			EngineRules:   st.EngineRules,
			FallbackRules: st.FallbackRules,
			Rejected:      st.Rejected,
			Scanned:       s.scanned,
		})
	case "close":
		return true, s.reply(req.Type, nil)
	default:
		return false, s.fail("error", fmt.Errorf("unknown request type: %q", req.Type))
	}
}

func (s *Server) reply(typ string, data any) error {
	resp := Response{Success: true, Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		resp.Data = raw
	}
	return s.enc.Encode(resp)
}

// fail reports err to the client. Only a failure to write is returned.
func (s *Server) fail(typ string, err error) error {
	if errors.Is(err, matcher.ErrClosed) {
		s.logger.Error("matcher closed", "type", typ)
	}
	return s.enc.Encode(Response{Type: typ, Error: err.Error()})
}

func toScanResult(item Item, results []*matcher.Result) ScanResult {
	res := ScanResult{Source: item.Source, Findings: make([]Finding, 0, len(results))}
	for _, r := range results {
		f := Finding{
			RuleID:   r.RuleID,
			RuleName: r.RuleName,
			Start:    r.Start,
			End:      r.End,
			Match:    string(r.Snippet.Matching),
		}
		for _, g := range r.Groups {
			f.Groups = append(f.Groups, string(g))
		}
		if len(r.NamedGroups) > 0 {
			f.NamedGroups = make(map[string]string, len(r.NamedGroups))
			for k, v := range r.NamedGroups {
				f.NamedGroups[k] = string(v)
			}
		}
		res.Findings = append(res.Findings, f)
	}
	return res
}
