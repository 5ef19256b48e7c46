package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamehtml/tamehtml"
)

// fileConfig is the YAML shape of --config files. Feature keys use the
// documented flag names, e.g.
//
//	features:
//	  augmentations: true
//	  scanner/normalize-attrs: true
//	properties:
//	  names/elems: lower
//	  default-encoding: utf-8
type fileConfig struct {
	Features   map[string]bool   `yaml:"features"`
	Properties map[string]string `yaml:"properties"`
}

func loadConfig(path string) (tamehtml.Config, error) {
	cfg := tamehtml.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	for key, val := range fc.Features {
		if err := applyFeature(&cfg, key, val); err != nil {
			return cfg, err
		}
	}
	for key, val := range fc.Properties {
		if err := applyProperty(&cfg, key, val); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func applyFeature(cfg *tamehtml.Config, key string, val bool) error {
	switch key {
	case "augmentations":
		cfg.Augmentations = val
	case "report-errors":
		cfg.ReportErrors = val
	case "ignore-specified-charset":
		cfg.IgnoreSpecifiedCharset = val
	case "scanner/cdata-sections":
		cfg.CDATASections = val
	case "scanner/cdata-early-closing":
		cfg.CDATAEarlyClosing = val
	case "scanner/script/strip-cdata-delims":
		cfg.ScriptStripCDATADelims = val
	case "scanner/script/strip-comment-delims":
		cfg.ScriptStripCommentDelims = val
	case "scanner/style/strip-cdata-delims":
		cfg.StyleStripCDATADelims = val
	case "scanner/style/strip-comment-delims":
		cfg.StyleStripCommentDelims = val
	case "override-doctype":
		cfg.OverrideDoctype = val
	case "insert-doctype":
		cfg.InsertDoctype = val
	case "parse-noscript-content":
		cfg.ParseNoscriptContent = val
	case "scanner/allow-selfclosing-iframe":
		cfg.AllowSelfClosingIframe = val
	case "scanner/allow-selfclosing-script":
		cfg.AllowSelfClosingScript = val
	case "scanner/allow-selfclosing-tags":
		cfg.AllowSelfClosingTags = val
	case "scanner/normalize-attrs":
		cfg.NormalizeAttrs = val
	case "scanner/plain-attr-values":
		cfg.PlainAttrValues = val
	case "balance-tags":
		cfg.BalanceTags = val
	case "balance-tags/document-fragment":
		cfg.DocumentFragment = val
	case "balance-tags/ignore-outside-content":
		cfg.IgnoreOutsideContent = val
	default:
		return fmt.Errorf("unknown feature %q", key)
	}
	return nil
}

func applyProperty(cfg *tamehtml.Config, key, val string) error {
	switch key {
	case "names/elems":
		cfg.ElemNames = val
	case "names/attrs":
		cfg.AttrNames = val
	case "default-encoding":
		cfg.DefaultEncoding = val
	case "doctype/pubid":
		cfg.DoctypePubID = val
	case "doctype/sysid":
		cfg.DoctypeSysID = val
	default:
		return fmt.Errorf("unknown property %q", key)
	}
	return nil
}
