package gen

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Generate walks module once and renders every definition with
// target, returning the accumulated mapping from relative filename to
// source text. It performs no filesystem I/O; persistence is the
// caller's responsibility.
//
// The intended filenames of all tables, reducers, and target fixed
// files are validated up front: any collision fails the whole run
// with a CollisionError listing every contested filename, and no text
// is rendered. Given the same module and target, two calls produce
// byte-identical output.
func Generate(module *ModuleDef, target LanguageTarget) (map[string]string, error) {
	type plannedFile struct {
		name string // output filename
		def  string // definition it belongs to, for collision reports
	}
	var planned []plannedFile
	for _, t := range module.Tables() {
		planned = append(planned, plannedFile{target.TableFileName(t.Name), "table " + t.Name.String()})
	}
	for _, r := range module.Reducers() {
		planned = append(planned, plannedFile{target.ReducerFileName(r.Name), "reducer " + r.Name.String()})
	}
	scaffolder, _ := target.(ScaffoldGenerator)
	var scaffoldNames map[string]struct{}
	if scaffolder != nil {
		names := scaffolder.ScaffoldFileNames()
		scaffoldNames = make(map[string]struct{}, len(names))
		for _, name := range names {
			planned = append(planned, plannedFile{name, "scaffold"})
			scaffoldNames[name] = struct{}{}
		}
	}

	byFile := make(map[string][]string, len(planned))
	for _, p := range planned {
		byFile[p.name] = append(byFile[p.name], p.def)
	}
	if collisions := sortedCollisions(byFile); len(collisions) > 0 {
		return nil, &CollisionError{Collisions: collisions}
	}

	files := make(map[string]string, len(planned))
	for _, t := range module.Tables() {
		// Resolve eagerly so a dangling ref surfaces as an invariant
		// violation here rather than deep inside the target.
		if _, err := module.RowFields(t); err != nil {
			return nil, err
		}
		src, err := target.RenderTable(t, module)
		if err != nil {
			return nil, fmt.Errorf("render table %s for %s: %w", t.Name, target.Name(), err)
		}
		files[target.TableFileName(t.Name)] = src
	}
	for _, r := range module.Reducers() {
		src, err := target.RenderReducer(r)
		if err != nil {
			return nil, fmt.Errorf("render reducer %s for %s: %w", r.Name, target.Name(), err)
		}
		files[target.ReducerFileName(r.Name)] = src
	}
	if scaffolder != nil {
		shared, err := scaffolder.RenderScaffold(module)
		if err != nil {
			return nil, fmt.Errorf("render scaffold for %s: %w", target.Name(), err)
		}
		for name, src := range shared {
			// Undeclared keys skipped the collision check above and could
			// overwrite a definition file.
			if _, ok := scaffoldNames[name]; !ok {
				return nil, &InvariantError{Message: fmt.Sprintf(
					"target %s scaffold emitted undeclared file %s", target.Name(), name)}
			}
			files[name] = src
		}
	}
	return files, nil
}

// GenerateAll generates module for several targets concurrently, one
// goroutine per target, and returns the per-target file mappings
// keyed by target name. Concurrent runs are safe because each
// invocation only reads the shared ModuleDef. The first failing
// target cancels the rest.
func GenerateAll(ctx context.Context, module *ModuleDef, targets ...LanguageTarget) (map[string]map[string]string, error) {
	results := make([]map[string]string, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			files, err := Generate(module, t)
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name(), err)
			}
			results[i] = files
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(targets))
	for i, t := range targets {
		out[t.Name()] = results[i]
	}
	return out, nil
}
