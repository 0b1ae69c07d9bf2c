package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dep2p/go-asyncevent"
)

// 演示信号
const (
	sigClick asyncevent.Signal = iota + 1 // 单击
	sigMove                               // 拖动
	sigPress                              // 按下
	sigRelease                            // 释放
)

// demo 演示程序：四个信号、四个计数器
type demo struct {
	h   *asyncevent.Handle
	out io.Writer

	mu sync.Mutex // 保护 out

	clicks, moves, presses, releases int
}

func newDemo(h *asyncevent.Handle, out io.Writer) *demo {
	return &demo{h: h, out: out}
}

// bind 绑定四个演示信号
func (d *demo) bind() error {
	bindings := []struct {
		sig asyncevent.Signal
		cb  asyncevent.Callback
	}{
		{sigClick, d.onClick},
		{sigMove, d.printer("Move")},
		{sigPress, d.printer("Press")},
		{sigRelease, d.printer("Release")},
	}
	for _, b := range bindings {
		if err := d.h.Bind(b.sig, b.cb); err != nil {
			return err
		}
	}
	return nil
}

// onClick 单击回调：打印后以优先方式触发 MOVE/PRESS/RELEASE
//
// 不能在这里触发 CLICK 自身，否则本轮排空永不结束。
func (d *demo) onClick(arg any) {
	d.print("Click", arg)
	for _, sig := range []asyncevent.Signal{sigMove, sigPress, sigRelease} {
		if err := d.h.EmitFront(sig, arg); err != nil {
			log.Warn("emit failed", "signal", int(sig), "err", err)
		}
	}
}

func (d *demo) printer(name string) asyncevent.Callback {
	return func(arg any) { d.print(name, arg) }
}

func (d *demo) print(name string, arg any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s Event Trigger, Times=%v...\n", name, arg)
}

// readInput 逐字符读取输入并触发对应信号，直到 EOF
//
//	a → CLICK  b → MOVE  c → PRESS  d → RELEASE
//
// 其他字符忽略。参数为触发时的计数值（按值传递）。
func (d *demo) readInput(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var (
			sig asyncevent.Signal
			n   int
		)
		switch c {
		case 'a':
			d.clicks++
			sig, n = sigClick, d.clicks
		case 'b':
			d.moves++
			sig, n = sigMove, d.moves
		case 'c':
			d.presses++
			sig, n = sigPress, d.presses
		case 'd':
			d.releases++
			sig, n = sigRelease, d.releases
		default:
			continue
		}

		if err := d.h.EmitBack(sig, n); err != nil {
			if errors.Is(err, asyncevent.ErrClosed) {
				return nil
			}
			log.Warn("emit failed", "signal", int(sig), "err", err)
		}
	}
}

// loop 单 goroutine 模式：先触发 CLICK，再排空，循环往复
//
// iterations <= 0 时直到 ctx 结束或句柄关闭。
func (d *demo) loop(ctx context.Context, iterations int) error {
	for i := 0; iterations <= 0 || i < iterations; i++ {
		if err := d.h.EmitBack(sigClick, i); err != nil {
			if errors.Is(err, asyncevent.ErrClosed) {
				return nil
			}
			return err
		}
		if err := d.h.ProcessContext(ctx); err != nil {
			if errors.Is(err, asyncevent.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	return nil
}
