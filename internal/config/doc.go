// Package config loads service settings with viper.
//
// Example labelscan.yaml:
//
//	log_level: debug
//	debug_dir: /tmp/labelscan
//	db_path: /var/lib/labelscan/results.db
//	ocr:
//	  language: eng
//	scoring:
//	  policy: indian
//	offacts:
//	  timeout: 5s
//
// Any key can be overridden from the environment by upper-casing it,
// replacing dots with underscores and adding the LABELSCAN_ prefix:
// LABELSCAN_SCORING_POLICY=indian.
package config
