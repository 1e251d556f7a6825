package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/ctxutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

const (
	payloadNamespaceKey = "_onb_namespace"
	payloadVectorIDKey  = "_onb_vector_id"
	maxErrorBodyBytes   = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("6a0b3c1e-9d8f-4b51-a2e7-3c4f5d6e7f80")

type VectorStore struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	nsPrefix string
	distance string
	http     *http.Client
}

var _ vector.Store = (*VectorStore)(nil)

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type point struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
	Vector  []float32       `json:"vector"`
}

// NewVectorStore checks readiness and the collection's vector size before
// returning.
func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (*VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	s := newVectorStore(log, cfg, &http.Client{Timeout: 10 * time.Second})
	if err := s.verifyReady(ctx); err != nil {
		return nil, err
	}
	log.Info(
		"Qdrant vector store selected",
		"provider", "qdrant",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"namespace_prefix", s.nsPrefix,
		"vector_dim", cfg.VectorDim,
		"distance", s.distance,
	)
	return s, nil
}

func newVectorStore(log *logger.Logger, cfg Config, hc *http.Client) *VectorStore {
	return &VectorStore{
		log:      log.With("service", "QdrantVectorStore"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		nsPrefix: strings.TrimSpace(cfg.NamespacePrefix),
		http:     hc,
	}
}

func (s *VectorStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	if s == nil || len(vectors) == 0 {
		return nil
	}
	const op = "upsert"
	qualifiedNS := s.qualifyNamespace(namespace)

	for _, batch := range vector.Batches(vectors, vector.MaxBatch) {
		points := make([]map[string]any, 0, len(batch))
		for _, v := range batch {
			vectorID := strings.TrimSpace(v.ID)
			if vectorID == "" {
				return opErr(op, OperationErrorValidation, "vector id is required", nil)
			}
			if err := s.checkDim(op, vectorID, v.Values); err != nil {
				return err
			}
			payload := clonePayload(v.Metadata)
			payload[payloadNamespaceKey] = qualifiedNS
			payload[payloadVectorIDKey] = vectorID
			points = append(points, map[string]any{
				"id":      s.pointID(qualifiedNS, vectorID),
				"vector":  v.Values,
				"payload": payload,
			})
		}
		req := map[string]any{"points": points}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil); err != nil {
			return err
		}
	}
	return nil
}

// Query returns matches ordered by descending score, ties broken by id.
func (s *VectorStore) Query(ctx context.Context, namespace string, q []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	const op = "query"
	if len(q) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if err := s.checkDim(op, "query", q); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	qualifiedNS := s.qualifyNamespace(namespace)
	qf, err := translateFilter(qualifiedNS, filter)
	if err != nil {
		var typed *OperationError
		if errors.As(err, &typed) && typed.Code == OperationErrorUnsupportedFilter {
			s.log.Warn("qdrant query filter unsupported", "namespace", qualifiedNS, "error", err)
		}
		return nil, err
	}

	req := map[string]any{
		"vector":       q,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
		"filter":       qf,
	}
	var raw []point
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]vector.Match, 0, len(raw))
	for _, item := range raw {
		id := extractVectorID(item)
		if id == "" {
			continue
		}
		out = append(out, vector.Match{
			ID:       id,
			Score:    s.normalizeScore(item.Score),
			Metadata: userPayload(item.Payload),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// Fetch returns the stored vectors for ids. Missing ids are omitted.
func (s *VectorStore) Fetch(ctx context.Context, namespace string, ids []string) ([]vector.Vector, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	const op = "fetch"
	qualifiedNS := s.qualifyNamespace(namespace)
	pointIDs := s.pointIDs(qualifiedNS, ids)
	if len(pointIDs) == 0 {
		return nil, nil
	}
	req := map[string]any{
		"ids":          pointIDs,
		"with_payload": true,
		"with_vector":  true,
	}
	var raw []point
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points"), req, &raw); err != nil {
		return nil, err
	}
	out := make([]vector.Vector, 0, len(raw))
	for _, item := range raw {
		if ns, _ := item.Payload[payloadNamespaceKey].(string); ns != qualifiedNS {
			continue
		}
		id := extractVectorID(item)
		if id == "" {
			continue
		}
		out = append(out, vector.Vector{ID: id, Values: item.Vector, Metadata: userPayload(item.Payload)})
	}
	return out, nil
}

func (s *VectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil {
		return nil
	}
	pointIDs := s.pointIDs(s.qualifyNamespace(namespace), ids)
	if len(pointIDs) == 0 {
		return nil
	}
	req := map[string]any{"points": pointIDs}
	return s.doJSON(ctx, "delete", http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

// DeleteByFilter removes every point in namespace matching filter. An empty
// filter is rejected so a namespace is never wiped by accident.
func (s *VectorStore) DeleteByFilter(ctx context.Context, namespace string, filter vector.Filter) error {
	if s == nil {
		return nil
	}
	const op = "delete_by_filter"
	if len(filter) == 0 {
		return opErr(op, OperationErrorValidation, "filter required", nil)
	}
	qf, err := translateFilter(s.qualifyNamespace(namespace), filter)
	if err != nil {
		return err
	}
	req := map[string]any{"filter": qf}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

func (s *VectorStore) Ping(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("qdrant vector store not initialized")
	}
	return s.ready(ctx, "ping")
}

func (s *VectorStore) ready(ctx context.Context, op string) error {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	s.authorize(req)
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

func (s *VectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"
	if err := s.ready(ctx, op); err != nil {
		return err
	}

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &result); err != nil {
		return err
	}
	size := result.Config.Params.Vectors.Size
	if s.cfg.VectorDim > 0 && size != 0 && size != s.cfg.VectorDim {
		return &OperationError{
			Code:      OperationErrorValidation,
			Operation: op,
			Message: fmt.Sprintf(
				"qdrant collection %q vector size mismatch: expected=%d actual=%d",
				s.cfg.Collection, s.cfg.VectorDim, size,
			),
		}
	}
	s.distance = strings.TrimSpace(result.Config.Params.Vectors.Distance)
	return nil
}

func (s *VectorStore) checkDim(op, id string, values []float32) error {
	if len(values) == 0 {
		return opErr(op, OperationErrorValidation, fmt.Sprintf("vector %q has empty values", id), nil)
	}
	if s.cfg.VectorDim > 0 && len(values) != s.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("vector %q dimension mismatch: expected=%d got=%d", id, s.cfg.VectorDim, len(values)), nil)
	}
	return nil
}

func (s *VectorStore) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
}

func (s *VectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if msg := parseEnvelopeStatus(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if strings.EqualFold(str, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", str)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// userPayload strips the adapter's bookkeeping keys.
func userPayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if k == payloadNamespaceKey || k == payloadVectorIDKey {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *VectorStore) qualifyNamespace(namespace string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}

func (s *VectorStore) pointID(qualifiedNS, vectorID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(qualifiedNS+"|"+vectorID)).String()
}

func (s *VectorStore) pointIDs(qualifiedNS string, ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		pid := s.pointID(qualifiedNS, id)
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	return out
}

func (s *VectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

func extractVectorID(item point) string {
	if id, ok := item.Payload[payloadVectorIDKey].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return decodePointID(item.ID)
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	var num int64
	if err := json.Unmarshal(raw, &num); err == nil {
		return fmt.Sprintf("%d", num)
	}
	return strings.TrimSpace(string(raw))
}

func (s *VectorStore) normalizeScore(score float64) float64 {
	switch strings.ToLower(strings.TrimSpace(s.distance)) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
