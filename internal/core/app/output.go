package app

import (
	"path/filepath"

	"autoinject/internal/core/config"
	"autoinject/internal/core/errors"
	"autoinject/internal/engine/sourcemap"
	"autoinject/internal/shared/util"
)

const mapSuffix = ".map"

// mapOptions names the generated file and points the map's source back to
// the original relative to where the map is written.
func (a *App) mapOptions(cfg *config.Config, path string) sourcemap.EncodeOptions {
	opts := sourcemap.EncodeOptions{
		File:           filepath.Base(path),
		Source:         filepath.Base(path),
		IncludeContent: true,
	}
	if cfg.OutDir == "" {
		return opts
	}
	out, err := util.OutputPath(cfg.Root, cfg.OutDir, path)
	if err != nil {
		return opts
	}
	if rel, err := filepath.Rel(filepath.Dir(out), path); err == nil {
		opts.Source = filepath.ToSlash(rel)
	}
	return opts
}

// writeOutput mirrors the file into the output directory. Rewritten files
// get their source map written beside them; plain scripts also get a
// sourceMappingURL comment pointing at it.
func (a *App) writeOutput(cfg *config.Config, res *FileResult, code, mapJSON []byte) error {
	out, err := util.OutputPath(cfg.Root, cfg.OutDir, res.Path)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve output path"), errors.CtxPath, res.Path)
	}
	if len(mapJSON) > 0 && !a.parser.IsComposite(a.parser.Language(res.Path)) {
		code = appendMappingURL(code, filepath.Base(out)+mapSuffix)
	}
	if err := util.WriteFileWithDirs(out, code, 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output"), errors.CtxPath, out)
	}
	res.Output = out

	if len(mapJSON) == 0 {
		return nil
	}
	mapPath := out + mapSuffix
	if err := util.WriteFileWithDirs(mapPath, mapJSON, 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write source map"), errors.CtxPath, mapPath)
	}
	res.MapPath = mapPath
	return nil
}

func appendMappingURL(code []byte, mapName string) []byte {
	out := make([]byte, 0, len(code)+len(mapName)+24)
	out = append(out, code...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, "//# sourceMappingURL="...)
	out = append(out, mapName...)
	return append(out, '\n')
}
