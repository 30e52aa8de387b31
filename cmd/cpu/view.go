package cpu

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/debugger"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Instructions shown before pc in the code pane
const viewContextBefore = 6

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Full screen debugger for LC-2K programs",
	Long: `Loads a program and opens a full screen debugger showing the code around
pc, the register file, breakpoints and watchpoints.

The command line at the bottom accepts the same commands as 'lc2k cpu debug'.

Keys:
  F10     - step one instruction
  F5      - run until halt, breakpoint or watchpoint
  Ctrl+C  - interrupt a running program
  Esc     - quit`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	CpuCmd.AddCommand(viewCmd)
}

type debugView struct {
	app        *tview.Application
	controller *debugger.Controller
	backend    *debugger.Backend
	code       *tview.TextView
	registers  *tview.TextView
	points     *tview.TextView
	output     *tview.TextView
	input      *tview.InputField
	busy       atomic.Bool
}

func newDebugView(backend *debugger.Backend) *debugView {
	v := &debugView{
		app:       tview.NewApplication(),
		backend:   backend,
		code:      tview.NewTextView().SetDynamicColors(true),
		registers: tview.NewTextView().SetDynamicColors(true),
		points:    tview.NewTextView().SetDynamicColors(true),
		output:    tview.NewTextView().SetScrollable(true),
		input:     tview.NewInputField().SetLabel(viper.GetString("debug.prompt")),
	}

	v.code.SetBorder(true).SetTitle(" code ")
	v.registers.SetBorder(true).SetTitle(" registers ")
	v.points.SetBorder(true).SetTitle(" breakpoints ")
	v.output.SetBorder(true).SetTitle(" output ")
	v.output.SetChangedFunc(func() {
		v.output.ScrollToEnd()
		v.app.Draw()
	})

	v.controller = debugger.NewController(backend, debugger.NewTextUI(v.output, interpreter.StylePlain))

	v.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := v.input.GetText()
		v.input.SetText("")
		v.execute(line)
	})

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.registers, 13, 0, false).
		AddItem(v.points, 0, 1, false)

	top := tview.NewFlex().
		AddItem(v.code, 0, 2, false).
		AddItem(side, 40, 0, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, false).
		AddItem(v.output, 0, 1, false).
		AddItem(v.input, 1, 0, true)

	v.app.SetInputCapture(v.handleKey)
	v.app.SetRoot(root, true).SetFocus(v.input)
	v.refresh()
	return v
}

func (v *debugView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyF10:
		v.execute("step")
		return nil
	case tcell.KeyF5:
		v.execute("run")
		return nil
	case tcell.KeyCtrlC:
		v.backend.Interrupt()
		return nil
	case tcell.KeyEscape:
		v.app.Stop()
		return nil
	}
	return event
}

// Runs a command outside the UI goroutine so long runs can be interrupted
func (v *debugView) execute(line string) {
	if !v.busy.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer v.busy.Store(false)
		v.controller.Execute(line)

		v.app.QueueUpdateDraw(func() {
			if v.controller.Done() {
				v.app.Stop()
				return
			}
			v.refresh()
		})
	}()
}

func (v *debugView) refresh() {
	v.code.SetText(v.renderCode())
	v.registers.SetText(v.renderRegisters())
	v.points.SetText(v.renderPoints())
}

func (v *debugView) renderCode() string {
	_, _, _, height := v.code.GetInnerRect()
	if height <= 0 {
		height = 24
	}

	pc := v.backend.PC()
	start := uint32(0)
	if pc > viewContextBefore {
		start = pc - viewContextBefore
	}

	var sb strings.Builder
	for _, info := range v.backend.Disassemble(start, height) {
		if info.Label != "" {
			fmt.Fprintf(&sb, "[fuchsia]%s:[-]\n", tview.Escape(info.Label))
		}

		marker := "  "
		switch {
		case info.IsCurrentPC:
			marker = "[yellow::b]=>[-::-]"
		case info.HasBreakpoint:
			marker = "[red]* [-]"
		}

		fmt.Fprintf(&sb, "%s [aqua]%5d[-]  [gray]%08X[-]  %-18s [gray]# %s[-]\n",
			marker,
			info.Address,
			info.Encoding,
			tview.Escape(info.Instruction.String()),
			tview.Escape(info.Instruction.Describe()))
	}
	return sb.String()
}

func (v *debugView) renderRegisters() string {
	var sb strings.Builder
	for _, reg := range v.backend.Registers() {
		fmt.Fprintf(&sb, "[green]%s[-] %11d  0x%08X\n", reg.Name, int32(reg.Value), reg.Value)
	}
	fmt.Fprintf(&sb, "[green]pc[-] %11d\n", v.backend.PC())
	fmt.Fprintf(&sb, "[green]count[-] %8d\n", v.backend.InstructionCount())

	interp := v.backend.Interpreter()
	switch {
	case interp.Fault() != nil:
		fmt.Fprintf(&sb, "[red]%s[-]\n", tview.Escape(interp.Fault().Error()))
	case interp.Halted():
		sb.WriteString("[yellow]halted[-]\n")
	}
	return sb.String()
}

func (v *debugView) renderPoints() string {
	var sb strings.Builder
	for _, bp := range v.backend.Breakpoints() {
		fmt.Fprintf(&sb, "#%d [red]break[-] %s hits=%d\n", bp.ID, tview.Escape(locationText(bp.Address, bp.Label)), bp.HitCount)
	}
	for _, wp := range v.backend.Watchpoints() {
		fmt.Fprintf(&sb, "#%d [yellow]watch[-] %s = %d hits=%d\n", wp.ID, tview.Escape(locationText(wp.Address, wp.Label)), int32(wp.Value), wp.HitCount)
	}
	return sb.String()
}

func locationText(addr uint32, label string) string {
	if label == "" {
		return fmt.Sprintf("%d", addr)
	}
	return fmt.Sprintf("%d <%s>", addr, label)
}

func runView(cmd *cobra.Command, args []string) error {
	view := newDebugView(mustBackend(args[0]))
	return view.app.Run()
}
