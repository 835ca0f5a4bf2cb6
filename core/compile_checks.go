package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ DOIService      = (*Service)(nil)
	_ RandomSource    = mathRandomSource{}
	_ JobWorkerHook   = serviceJobHook{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
