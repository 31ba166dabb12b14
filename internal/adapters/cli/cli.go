package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"manufacturing-ledger/internal/app"
)

const usage = `Usage: ledger <command> [args]

Commands reading a JSON request on stdin (see 'ledger schema <command>'):
  receive, resolve, correct, add-stock, bom-add, bom-update, variant-costs, standard-cost

Commands taking ids:
  inspections                  list pending inspections
  inspection <id>              show one inspection
  stock <material-id>          stock positions of a material
  requirements <order-id>      material requirements of a production order
  complete <order-id>          complete a production order
  rollup <variant-id>          recompute a variant's cost
  cascade <material-id>        recompute every variant using a material
  bom-delete <line-id>         delete a BOM line
  schema <command>             print the JSON schema of a command's request`

// Runner executes one-shot commands against an ApplicationService.
type Runner struct {
	svc app.ApplicationService
	in  io.Reader
	out io.Writer
}

// New builds a Runner reading requests from in and writing results to out.
func New(svc app.ApplicationService, in io.Reader, out io.Writer) *Runner {
	return &Runner{svc: svc, in: in, out: out}
}

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "receive", "rcv":
		var req app.ReceivePORequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.ReceivePurchaseOrder(ctx, req)
		if err != nil {
			return err
		}
		return r.encode(result.Receipt)

	case "inspections", "ins":
		result, err := r.svc.ListPendingInspections(ctx)
		if err != nil {
			return err
		}
		printInspections(r.out, result)
		return nil

	case "inspection":
		id, err := intArg(args, 1, "inspection id")
		if err != nil {
			return err
		}
		result, err := r.svc.GetInspection(ctx, id)
		if err != nil {
			return err
		}
		return r.encode(result.Inspection)

	case "resolve", "res":
		var req app.ResolveInspectionRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.ResolveInspection(ctx, req)
		if err != nil {
			return err
		}
		return r.encode(result.Outcome)

	case "correct":
		var req app.CorrectCostRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.CorrectAcceptedCost(ctx, req)
		if err != nil {
			return err
		}
		return r.encode(result.Correction)

	case "add-stock":
		var req app.AddStockRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.AddStock(ctx, req)
		if err != nil {
			return err
		}
		printStock(r.out, result)
		return nil

	case "stock":
		id, err := intArg(args, 1, "material id")
		if err != nil {
			return err
		}
		result, err := r.svc.GetStockLevels(ctx, id)
		if err != nil {
			return err
		}
		printStock(r.out, result)
		return nil

	case "requirements", "req":
		id, err := intArg(args, 1, "production order id")
		if err != nil {
			return err
		}
		result, err := r.svc.CalculateRequirements(ctx, id)
		if err != nil {
			return err
		}
		printRequirements(r.out, result)
		return nil

	case "complete":
		id, err := intArg(args, 1, "production order id")
		if err != nil {
			return err
		}
		result, err := r.svc.CompleteProductionOrder(ctx, id)
		if err != nil {
			return err
		}
		return r.encode(result.Completion)

	case "rollup":
		id, err := intArg(args, 1, "variant id")
		if err != nil {
			return err
		}
		result, err := r.svc.RecomputeVariantCost(ctx, id)
		if err != nil {
			return err
		}
		printBreakdown(r.out, result.Breakdown)
		return nil

	case "cascade":
		id, err := intArg(args, 1, "material id")
		if err != nil {
			return err
		}
		result, err := r.svc.RecalculateVariantsByMaterial(ctx, id)
		if err != nil {
			return err
		}
		return r.encode(result)

	case "bom-add":
		var req app.BOMLineRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.AddBOMLine(ctx, req)
		if err != nil {
			return err
		}
		printBreakdown(r.out, result.Breakdown)
		return nil

	case "bom-update":
		var req app.UpdateBOMLineRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.UpdateBOMLine(ctx, req)
		if err != nil {
			return err
		}
		printBreakdown(r.out, result.Breakdown)
		return nil

	case "bom-delete":
		id, err := intArg(args, 1, "BOM line id")
		if err != nil {
			return err
		}
		result, err := r.svc.DeleteBOMLine(ctx, id)
		if err != nil {
			return err
		}
		printBreakdown(r.out, result.Breakdown)
		return nil

	case "variant-costs":
		var req app.VariantCostingRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.UpdateVariantCosting(ctx, req)
		if err != nil {
			return err
		}
		printBreakdown(r.out, result.Breakdown)
		return nil

	case "standard-cost":
		var req app.StandardCostRequest
		if err := r.decode(&req); err != nil {
			return err
		}
		result, err := r.svc.UpdateStandardCost(ctx, req)
		if err != nil {
			return err
		}
		return r.encode(result)

	case "schema":
		if len(args) < 2 {
			return fmt.Errorf("usage: ledger schema <command>, one of: %s", strings.Join(app.PayloadCommands(), ", "))
		}
		schema, err := app.Schema(args[1])
		if err != nil {
			return err
		}
		return r.encode(schema)

	case "help", "-h", "--help":
		fmt.Fprintln(r.out, usage)
		return nil

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

func (r *Runner) decode(v any) error {
	dec := json.NewDecoder(r.in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON request: %w", err)
	}
	return nil
}

func (r *Runner) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func intArg(args []string, i int, what string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing %s", what)
	}
	id, err := strconv.Atoi(args[i])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", what, args[i])
	}
	return id, nil
}
