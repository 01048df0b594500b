package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// ErrUnknownField is returned for a top-level field the resolver does not serve.
var ErrUnknownField = errors.New("cannot query field")

// fieldFunc resolves one top-level field.
type fieldFunc func(ctx context.Context, args arguments) (any, error)

// Execute parses the request, resolves each top-level field of the selected
// operation and projects the results onto the requested sub-selections.
// Field errors are reported per field; the other fields still resolve.
func (r *Resolver) Execute(ctx context.Context, req Request) *gqlgen.Response {
	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		var gqlErr *gqlerror.Error
		if errors.As(err, &gqlErr) {
			return &gqlgen.Response{Errors: gqlerror.List{gqlErr}}
		}
		return &gqlgen.Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err.Error())}}
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		if req.OperationName == "" {
			return errorResponse("operation name is required when the document has several operations")
		}
		return errorResponse(fmt.Sprintf("unknown operation %q", req.OperationName))
	}

	var fields map[string]fieldFunc
	switch op.Operation {
	case ast.Query:
		fields = r.queries
	case ast.Mutation:
		fields = r.mutations
	default:
		return errorResponse(fmt.Sprintf("%s operations are not supported", op.Operation))
	}

	vars := req.Variables
	if vars == nil {
		vars = map[string]any{}
	}

	data := make(map[string]any)
	var errs gqlerror.List
	for _, f := range collectFields(doc, op.SelectionSet) {
		key := f.Alias
		if key == "" {
			key = f.Name
		}
		if f.Name == "__typename" {
			data[key] = typeName(op.Operation)
			continue
		}

		resolve, ok := fields[f.Name]
		if !ok {
			data[key] = nil
			errs = append(errs, fieldError(f, fmt.Errorf("%w %q on type %q", ErrUnknownField, f.Name, typeName(op.Operation))))
			continue
		}

		args, err := resolveArguments(f.Arguments, op.VariableDefinitions, vars)
		if err != nil {
			data[key] = nil
			errs = append(errs, fieldError(f, err))
			continue
		}

		value, err := resolve(ctx, args)
		if err != nil {
			data[key] = nil
			errs = append(errs, fieldError(f, err))
			continue
		}

		projected, err := project(doc, value, f.SelectionSet)
		if err != nil {
			data[key] = nil
			errs = append(errs, fieldError(f, err))
			continue
		}
		data[key] = projected
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return errorResponse("encoding response: " + err.Error())
	}
	return &gqlgen.Response{Data: raw, Errors: errs}
}

func errorResponse(msg string) *gqlgen.Response {
	return &gqlgen.Response{Errors: gqlerror.List{{Message: msg}}}
}

func typeName(op ast.Operation) string {
	if op == ast.Mutation {
		return "Mutation"
	}
	return "Query"
}

func fieldError(f *ast.Field, err error) *gqlerror.Error {
	e := &gqlerror.Error{
		Err:        err,
		Message:    userMessage(err),
		Path:       ast.Path{ast.PathName(f.Alias)},
		Extensions: errorExtensions(err),
	}
	if f.Position != nil {
		e.Locations = []gqlerror.Location{{Line: f.Position.Line, Column: f.Position.Column}}
	}
	return e
}

// collectFields flattens fragments in a selection set into its fields.
func collectFields(doc *ast.QueryDocument, set ast.SelectionSet) []*ast.Field {
	var out []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			out = append(out, s)
		case *ast.InlineFragment:
			out = append(out, collectFields(doc, s.SelectionSet)...)
		case *ast.FragmentSpread:
			if def := doc.Fragments.ForName(s.Name); def != nil {
				out = append(out, collectFields(doc, def.SelectionSet)...)
			}
		}
	}
	return out
}

// project keeps the selected keys of a resolved value. Values are first
// brought to their JSON shape so struct tags name the fields.
func project(doc *ast.QueryDocument, value any, set ast.SelectionSet) (any, error) {
	if len(set) == 0 || value == nil {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return projectValue(doc, generic, set), nil
}

func projectValue(doc *ast.QueryDocument, v any, set ast.SelectionSet) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = projectValue(doc, item, set)
		}
		return out
	case map[string]any:
		out := make(map[string]any)
		for _, f := range collectFields(doc, set) {
			key := f.Alias
			if key == "" {
				key = f.Name
			}
			child, ok := val[f.Name]
			if !ok {
				out[key] = nil
				continue
			}
			if len(f.SelectionSet) > 0 {
				child = projectValue(doc, child, f.SelectionSet)
			}
			out[key] = child
		}
		return out
	default:
		return v
	}
}

// resolveArguments evaluates field arguments against the request variables,
// falling back to variable defaults.
func resolveArguments(list ast.ArgumentList, defs ast.VariableDefinitionList, vars map[string]any) (arguments, error) {
	args := make(arguments, len(list))
	for _, a := range list {
		v, err := valueOf(a.Value, defs, vars)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a.Name, err)
		}
		args[a.Name] = v
	}
	return args, nil
}

func valueOf(v *ast.Value, defs ast.VariableDefinitionList, vars map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Kind {
	case ast.Variable:
		if val, ok := vars[v.Raw]; ok {
			return val, nil
		}
		if def := defs.ForName(v.Raw); def != nil && def.DefaultValue != nil {
			return valueOf(def.DefaultValue, defs, vars)
		}
		return nil, nil
	case ast.IntValue:
		return strconv.ParseInt(v.Raw, 10, 64)
	case ast.FloatValue:
		return strconv.ParseFloat(v.Raw, 64)
	case ast.BooleanValue:
		return strconv.ParseBool(v.Raw)
	case ast.NullValue:
		return nil, nil
	case ast.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			item, err := valueOf(c.Value, defs, vars)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			item, err := valueOf(c.Value, defs, vars)
			if err != nil {
				return nil, err
			}
			out[c.Name] = item
		}
		return out, nil
	default:
		return v.Raw, nil
	}
}
