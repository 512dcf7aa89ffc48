package core

import (
	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/config"
)

// OptionsFromConfig maps the upload and batch settings onto service Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		UploadWait:           cfg.Upload.MaxWaitTime,
		UploadTimeout:        cfg.Upload.Timeout,
		ErrorPreview:         cfg.Upload.ErrorPreview,
		ItemDelay:            cfg.Batch.ItemDelay,
		CandidateTimeout:     cfg.Batch.CandidateTimeout,
	}
}

// TemplateFromConfig returns the default certificate wording with any
// configured overrides applied.
func TemplateFromConfig(cfg config.CertificateConfig) certificate.Template {
	tpl := certificate.DefaultTemplate()
	if cfg.Organisation != "" {
		tpl.Organisation = cfg.Organisation
		tpl.ConductedBy = cfg.Organisation
		if cfg.ShortName != "" {
			tpl.ConductedBy += " (" + cfg.ShortName + ")"
		}
	}
	if cfg.ShortName != "" {
		tpl.ShortName = cfg.ShortName
	}
	if cfg.Signatory != "" {
		tpl.Signatory = cfg.Signatory
	}
	if cfg.SignatoryTitle != "" {
		tpl.SignatoryTitle = cfg.SignatoryTitle
	}
	if cfg.Cohort != "" {
		tpl.Cohort = cfg.Cohort
	}
	return tpl
}
