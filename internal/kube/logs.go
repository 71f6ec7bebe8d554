package kube

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mantalabs/kinde2e/internal/command"
	"github.com/mantalabs/kinde2e/internal/converge"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"
	"k8s.io/client-go/kubernetes"
)

// PodLogs fetches the complete log of one container.
type PodLogs struct {
	Client    kubernetes.Interface
	Namespace string
	Pod       string
	Container string
	// MaxBytes caps the log read per fetch. Zero or less disables the cap.
	MaxBytes int64
}

// Fetch streams the whole container log and returns it as text. Errors the
// API raises while the pod is still being scheduled or started are marked
// converge.Transient.
func (p *PodLogs) Fetch(ctx context.Context) (string, error) {
	req := p.Client.CoreV1().Pods(p.Namespace).GetLogs(p.Pod, &corev1.PodLogOptions{Container: p.Container})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", classify(fmt.Errorf("logs %s/%s[%s]: %w", p.Namespace, p.Pod, p.Container, err))
	}
	defer stream.Close()

	var r io.Reader = stream
	if p.MaxBytes > 0 {
		r = io.LimitReader(stream, p.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", classify(fmt.Errorf("read logs %s/%s[%s]: %w", p.Namespace, p.Pod, p.Container, err))
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return "", fmt.Errorf("logs %s/%s[%s]: %w (limit %d bytes)", p.Namespace, p.Pod, p.Container, command.ErrOutputTooLarge, p.MaxBytes)
	}
	return string(data), nil
}

func classify(err error) error {
	if IsTransient(err) {
		return converge.Transient(err)
	}
	return err
}

// IsTransient reports whether err is one the API returns while a workload is
// still coming up, or a connection failure to an API server that is restarting.
// A pod that does not exist yet is NotFound; a container still waiting to
// start is BadRequest.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case apierrors.IsNotFound(err),
		apierrors.IsBadRequest(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsTimeout(err),
		apierrors.IsServerTimeout(err),
		apierrors.IsTooManyRequests(err),
		apierrors.IsInternalError(err):
		return true
	case utilnet.IsConnectionRefused(err),
		utilnet.IsConnectionReset(err),
		utilnet.IsProbableEOF(err):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		// A per-request timeout; the caller's own context is checked first.
		return true
	default:
		return false
	}
}
