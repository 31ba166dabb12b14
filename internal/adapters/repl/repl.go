package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"manufacturing-ledger/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive ledger shell. It reads slash commands from reader and writes
// tables and prompts to out until /exit or end of input.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Manufacturing Ledger")
	fmt.Fprintln(out, "Receive purchase orders, release quarantined lots and cost products. Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	sh := &shell{ctx: ctx, svc: svc, reader: reader, out: out}
	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			continue
		}
		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(out, "Commands start with '/'. Type /help for the list.")
			continue
		}
		if derr := sh.dispatch(input); derr != nil {
			if derr == errExit {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error [%s]: %v\n", app.ErrorCode(derr), derr)
		}
		if err != nil {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
	}
}

type shell struct {
	ctx    context.Context
	svc    app.ApplicationService
	reader *bufio.Reader
	out    io.Writer
}

func (s *shell) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "receive", "rcv":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /receive <po-id> [warehouse-id]")
			return nil
		}
		poID, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid purchase order id: %s\n", args[0])
			return nil
		}
		req := app.ReceivePORequest{PurchaseOrderID: poID}
		if len(args) >= 2 {
			wh, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(s.out, "Invalid warehouse id: %s\n", args[1])
				return nil
			}
			req.TargetWarehouseID = &wh
		}
		result, err := s.svc.ReceivePurchaseOrder(s.ctx, req)
		if err != nil {
			return err
		}
		printReceipt(s.out, result)

	case "inspections", "ins":
		result, err := s.svc.ListPendingInspections(s.ctx)
		if err != nil {
			return err
		}
		printInspections(s.out, result)

	case "resolve":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /resolve <inspection-id>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid inspection id: %s\n", args[0])
			return nil
		}
		return s.handleResolve(id)

	case "correct":
		if len(args) < 3 {
			fmt.Fprintln(s.out, "Usage: /correct <inspection-id> <new-unit-cost> <actor> <reason...>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid inspection id: %s\n", args[0])
			return nil
		}
		req := app.CorrectCostRequest{InspectionID: id, NewUnitCost: args[1], Actor: args[2]}
		if len(args) > 3 {
			req.Reason = strings.Join(args[3:], " ")
		}
		result, err := s.svc.CorrectAcceptedCost(s.ctx, req)
		if err != nil {
			return err
		}
		printCorrection(s.out, result)

	case "stock":
		id, ok := s.intArg(args, "/stock <material-id>")
		if !ok {
			return nil
		}
		result, err := s.svc.GetStockLevels(s.ctx, id)
		if err != nil {
			return err
		}
		printStock(s.out, result)

	case "add-stock":
		// Usage: /add-stock <material-id> <warehouse-id> <qty> [unit-cost]
		if len(args) < 3 {
			fmt.Fprintln(s.out, "Usage: /add-stock <material-id> <warehouse-id> <qty> [unit-cost]")
			fmt.Fprintln(s.out, "  A unit cost into a raw-materials warehouse updates the average cost.")
			return nil
		}
		mat, err1 := strconv.Atoi(args[0])
		wh, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			fmt.Fprintln(s.out, "Material and warehouse must be numeric ids.")
			return nil
		}
		req := app.AddStockRequest{MaterialID: mat, WarehouseID: wh, Quantity: args[2], Notes: "manual add from shell"}
		if len(args) >= 4 {
			req.UnitCost = args[3]
		}
		result, err := s.svc.AddStock(s.ctx, req)
		if err != nil {
			return err
		}
		printStock(s.out, result)

	case "requirements", "req":
		id, ok := s.intArg(args, "/requirements <production-order-id>")
		if !ok {
			return nil
		}
		result, err := s.svc.CalculateRequirements(s.ctx, id)
		if err != nil {
			return err
		}
		printRequirements(s.out, result)

	case "complete":
		id, ok := s.intArg(args, "/complete <production-order-id>")
		if !ok {
			return nil
		}
		result, err := s.svc.CompleteProductionOrder(s.ctx, id)
		if err != nil {
			return err
		}
		printCompletion(s.out, result)

	case "cost", "rollup":
		id, ok := s.intArg(args, "/cost <variant-id>")
		if !ok {
			return nil
		}
		result, err := s.svc.RecomputeVariantCost(s.ctx, id)
		if err != nil {
			return err
		}
		printBreakdown(s.out, result.Breakdown)

	case "std-cost":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: /std-cost <material-id> <standard-cost>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid material id: %s\n", args[0])
			return nil
		}
		result, err := s.svc.UpdateStandardCost(s.ctx, app.StandardCostRequest{MaterialID: id, StandardCost: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Standard cost of %s set to %s. Variants re-costed: %v\n",
			result.Material.Code, result.Material.StandardCost.StringFixed(4), result.VariantsUpdated)

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

func (s *shell) intArg(args []string, usage string) (int, bool) {
	if len(args) < 1 {
		fmt.Fprintf(s.out, "Usage: %s\n", usage)
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid id: %s\n", args[0])
		return 0, false
	}
	return id, true
}

func (s *shell) prompt(label string) string {
	fmt.Fprint(s.out, label)
	line, _ := s.reader.ReadString('\n')
	return strings.TrimSpace(line)
}
