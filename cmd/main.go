package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"clipwatch/app"
	"clipwatch/model"
)

const usage = `用法: clipwatch [-config 路径] <命令> [参数]

命令:
  watch            监听剪贴板（默认）
  list [-n 数量]   列出最近的历史
  search <关键字>  模糊搜索历史
  delete <id>      删除一条历史
  clear            清空历史
  copy <id>        把历史项写回剪贴板（运行中的 watch 会把它记为新的一条）
  open <id>        打开图片历史项
`

func main() {
	configPath := flag.String("config", "", "配置文件路径（.json/.toml/.yaml）")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// 创建应用
	application, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建应用失败: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, application, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.Application, args []string) error {
	cmd := "watch"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "watch":
		return a.Watch(ctx)
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		n := fs.Int("n", 20, "显示数量，0 表示全部")
		if err := fs.Parse(args); err != nil {
			return err
		}
		var items []*model.ClipboardItem
		var err error
		if *n == 0 {
			items, err = a.History().LoadAll(ctx)
		} else {
			items, err = a.History().ListRecent(ctx, *n)
		}
		if err != nil {
			return err
		}
		for _, item := range items {
			printItem(item, 0, false)
		}
		return nil
	case "search":
		results, err := a.History().Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, r := range results {
			printItem(r.Item, r.Score, true)
		}
		return nil
	case "delete":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return a.History().Delete(ctx, id)
	case "clear":
		return a.History().Clear(ctx)
	case "copy":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return a.Copy(ctx, id)
	case "open":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return a.Open(ctx, id)
	default:
		flag.Usage()
		return fmt.Errorf("未知命令: %s", cmd)
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("需要一个 id 参数")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的 id: %s", args[0])
	}
	return id, nil
}

func printItem(item *model.ClipboardItem, score int, withScore bool) {
	var body string
	switch c := item.Content.(type) {
	case model.Text:
		body = strings.ReplaceAll(c.Value, "\n", "⏎")
		if r := []rune(body); len(r) > 80 {
			body = string(r[:80]) + "…"
		}
	case model.Image:
		body = "[图片] " + c.Path
	}
	stamp := item.CreatedAt.Local().Format("2006-01-02 15:04:05")
	if withScore {
		fmt.Printf("%6d  %s  %5d  %s\n", item.ID, stamp, score, body)
		return
	}
	fmt.Printf("%6d  %s  %s\n", item.ID, stamp, body)
}
