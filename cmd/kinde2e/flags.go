package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mantalabs/kinde2e"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variables bound to flags:
// --cluster-name is KINDE2E_CLUSTER_NAME.
const envPrefix = "KINDE2E"

// configEnv names an optional config file with flag names as keys.
const configEnv = envPrefix + "_CONFIG"

// options holds the parsed command line.
type options struct {
	cfg kinde2e.Config

	timeoutSeconds  float64
	intervalSeconds float64
	logSource       string
	logLevel        string
	noColor         bool
}

func newOptions() *options {
	cfg := kinde2e.DefaultConfig()
	return &options{
		cfg:             cfg,
		timeoutSeconds:  cfg.Timeout.Seconds(),
		intervalSeconds: cfg.Interval.Seconds(),
		logSource:       cfg.LogSource.String(),
		logLevel:        "info",
	}
}

func (o *options) bindFlags(fs *pflag.FlagSet) {
	c := &o.cfg

	fs.StringVar(&c.ClusterName, "cluster-name", c.ClusterName, "Name of the kind cluster")
	fs.StringVar(&c.KindConfig, "kind-config", c.KindConfig, "kind cluster configuration file")
	fs.StringVar(&c.KindImage, "kind-image", c.KindImage, "kind node image")
	fs.StringVar(&c.Kubeconfig, "kubeconfig", c.Kubeconfig, "Credentials file written by kind and used by every tool")
	fs.StringSliceVar(&c.Manifests, "manifest", c.Manifests, "Manifest to apply, in order (repeat or comma-separate)")

	pairedBool(fs, &c.CreateCluster, "create-cluster", "Create the cluster before the test")
	pairedBool(fs, &c.DeleteCluster, "delete-cluster", "Delete the cluster on exit")
	pairedBool(fs, &c.DockerBuild, "docker-build", "Build the image and load it into the cluster")

	fs.Float64Var(&o.timeoutSeconds, "timeout", o.timeoutSeconds, "Seconds to wait for the log markers after the manifests are applied")
	fs.Float64Var(&o.intervalSeconds, "interval", o.intervalSeconds, "Seconds between log fetches")
	fs.IntVar(&c.Verbosity, "verbosity", c.Verbosity, "kind create cluster verbosity")
	fs.StringVar(&c.ImageTag, "image-tag", c.ImageTag, "Tag of the image under test")
	fs.StringVar(&c.BuildContext, "build-context", c.BuildContext, "docker build context")

	fs.StringVarP(&c.Namespace, "namespace", "n", c.Namespace, "Namespace of the log pod and diagnostic resource")
	fs.StringVar(&o.logSource, "log-source", o.logSource, `How to read the log: "kubectl" or "api"`)
	fs.StringVar(&c.LogPod, "log-pod", c.LogPod, "Pod whose log is polled")
	fs.StringVar(&c.LogContainer, "log-container", c.LogContainer, "Container whose log is polled")
	fs.StringSliceVar(&c.Markers, "marker", c.Markers, "Text that must appear in the log (repeat for several)")
	fs.StringVar(&c.DiagnosticResource, "diagnostic-resource", c.DiagnosticResource, "Resource described when the run times out")

	fs.StringVar(&c.KindBinary, "kind-binary", c.KindBinary, "kind executable")
	fs.StringVar(&c.KubectlBinary, "kubectl-binary", c.KubectlBinary, "kubectl executable")
	fs.StringVar(&c.DockerBinary, "docker-binary", c.DockerBinary, "docker executable")

	fs.StringVar(&c.LockDir, "lock-dir", c.LockDir, "Directory for per-cluster lock files")
	fs.DurationVar(&c.LockTimeout, "lock-timeout", c.LockTimeout, "How long to wait for another run on the same cluster")
	fs.DurationVar(&c.TeardownTimeout, "teardown-timeout", c.TeardownTimeout, "Upper bound for cluster deletion")

	fs.StringVar(&o.logLevel, "log-level", o.logLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
}

// config converts the parsed flags into a run configuration.
func (o *options) config() (kinde2e.Config, error) {
	var errs []error

	cfg := o.cfg
	timeout, err := secondsToDuration("timeout", o.timeoutSeconds)
	errs = append(errs, err)
	cfg.Timeout = timeout
	interval, err := secondsToDuration("interval", o.intervalSeconds)
	errs = append(errs, err)
	cfg.Interval = interval
	source, err := kinde2e.ParseLogSource(o.logSource)
	errs = append(errs, err)
	cfg.LogSource = source

	return cfg, errors.Join(errs...)
}

func secondsToDuration(name string, s float64) (time.Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("--%s must be a finite number of seconds, got %v", name, s)
	}
	return time.Duration(s * float64(time.Second)), nil
}

// pairedBool registers --name and --no-name on one bool. Both may be given;
// the last one on the command line wins.
func pairedBool(fs *pflag.FlagSet, p *bool, name, usage string) {
	fs.BoolVar(p, name, *p, usage)
	fs.Var((*invertedBool)(p), "no-"+name, "Inverse of --"+name)
	fs.Lookup("no-" + name).NoOptDefVal = "true"
}

// invertedBool is a pflag.Value that stores the negation of what it is set to.
type invertedBool bool

func (b *invertedBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = invertedBool(!v)
	return nil
}

func (b *invertedBool) String() string {
	if b == nil {
		return "false"
	}
	return strconv.FormatBool(!bool(*b))
}

func (b *invertedBool) Type() string { return "bool" }

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// applyViper fills every flag the user did not set from the environment or
// the config file named by KINDE2E_CONFIG.
func applyViper(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if path := os.Getenv(configEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", configEnv, err)
		}
	}

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || partnerChanged(fs, f.Name) || !v.IsSet(f.Name) {
			return
		}
		raw := v.Get(f.Name)
		// Lists from a config file arrive decoded; strings from the
		// environment go through the flag's own comma parsing.
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if _, isString := raw.(string); !isString {
				if err := sv.Replace(v.GetStringSlice(f.Name)); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
				}
				return
			}
		}
		val := fmt.Sprintf("%v", raw)
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// partnerChanged reports whether the other half of a paired --X/--no-X flag
// was given on the command line, in which case the command line decides.
func partnerChanged(fs *pflag.FlagSet, name string) bool {
	partner := "no-" + name
	if rest, ok := strings.CutPrefix(name, "no-"); ok {
		partner = rest
	}
	f := fs.Lookup(partner)
	if f == nil {
		return false
	}
	_, paired := f.Value.(*invertedBool)
	if !paired {
		_, paired = fs.Lookup(name).Value.(*invertedBool)
	}
	return paired && f.Changed
}
