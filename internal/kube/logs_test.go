package kube

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/mantalabs/kinde2e/internal/command"
	"github.com/mantalabs/kinde2e/internal/converge"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func TestPodLogs_Fetch(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset()
	logs := &PodLogs{
		Client:    client,
		Namespace: "default",
		Pod:       "validator-0",
		Container: "informer",
	}

	out, err := logs.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	// The fake clientset serves a fixed body for every log request.
	if out != "fake logs" {
		t.Errorf("Fetch() = %q, want %q", out, "fake logs")
	}

	var found bool
	for _, action := range client.Actions() {
		if action.GetSubresource() != "log" {
			continue
		}
		found = true
		if action.GetNamespace() != "default" {
			t.Errorf("namespace = %q, want default", action.GetNamespace())
		}
		generic, ok := action.(k8stesting.GenericAction)
		if !ok {
			t.Fatalf("action %T is not a GenericAction", action)
		}
		opts, ok := generic.GetValue().(*corev1.PodLogOptions)
		if !ok {
			t.Fatalf("action value %T, want *PodLogOptions", generic.GetValue())
		}
		if opts.Container != "informer" {
			t.Errorf("container = %q, want informer", opts.Container)
		}
	}
	if !found {
		t.Error("no pod log request recorded")
	}
}

func TestPodLogs_FetchTooLarge(t *testing.T) {
	t.Parallel()

	logs := &PodLogs{
		Client:    fake.NewClientset(),
		Namespace: "default",
		Pod:       "validator-0",
		Container: "informer",
		MaxBytes:  4,
	}

	if _, err := logs.Fetch(context.Background()); !errors.Is(err, command.ErrOutputTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrOutputTooLarge", err)
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	pods := schema.GroupResource{Resource: "pods"}

	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":                  {err: nil, want: false},
		"pod not found":        {err: apierrors.NewNotFound(pods, "validator-0"), want: true},
		"container waiting":    {err: apierrors.NewBadRequest(`container "informer" is waiting to start`), want: true},
		"service unavailable":  {err: apierrors.NewServiceUnavailable("etcd not ready"), want: true},
		"server timeout":       {err: apierrors.NewServerTimeout(pods, "get", 1), want: true},
		"too many requests":    {err: apierrors.NewTooManyRequests("slow down", 1), want: true},
		"internal error":       {err: apierrors.NewInternalError(errors.New("boom")), want: true},
		"connection refused":   {err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		"wrapped not found":    {err: fmt.Errorf("logs: %w", apierrors.NewNotFound(pods, "x")), want: true},
		"request deadline":     {err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: true},
		"forbidden":            {err: apierrors.NewForbidden(pods, "validator-0", errors.New("rbac")), want: false},
		"unauthorized":         {err: apierrors.NewUnauthorized("bad token"), want: false},
		"unrelated":            {err: errors.New("boom"), want: false},
		"output limit reached": {err: command.ErrOutputTooLarge, want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	notFound := apierrors.NewNotFound(schema.GroupResource{Resource: "pods"}, "validator-0")
	if err := classify(notFound); !converge.IsTransient(err) || !apierrors.IsNotFound(err) {
		t.Errorf("classify(NotFound) = %v, want transient NotFound", err)
	}

	forbidden := apierrors.NewForbidden(schema.GroupResource{Resource: "pods"}, "x", errors.New("rbac"))
	if err := classify(forbidden); converge.IsTransient(err) {
		t.Errorf("classify(Forbidden) marked transient")
	}
}
