package run

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/John-Robertt/sortfiles/internal/domain"
)

type recordObserver struct {
	startCalls  int
	scanTotal   int
	files       []string
	finishCalls int
	outcome     string

	// onFile 在每个文件完成后调用（用于在 run 中途触发取消）。
	onFile func(idx int)
}

func (o *recordObserver) OnStart(mode domain.Mode, root string, dryRun bool) { o.startCalls++ }

func (o *recordObserver) OnScanDone(total int, dur time.Duration) { o.scanTotal = total }

func (o *recordObserver) OnFileDone(idx, total int, res domain.FileResult) {
	o.files = append(o.files, res.Src)
	if o.onFile != nil {
		o.onFile(idx)
	}
}

func (o *recordObserver) OnFinish(rr domain.RunReport) {
	o.finishCalls++
	o.outcome = rr.Outcome
}

func TestExecuteWithObserver_EmitsEvents(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "a.jpg", "a")
	write(t, fs, "b.jpg", "b")

	obs := &recordObserver{}
	_ = ExecuteWithObserver(context.Background(), opts(fs, domain.ModeOrganizeByDate, stubProbe{}), obs)

	if obs.startCalls != 1 || obs.finishCalls != 1 {
		t.Fatalf("OnStart/OnFinish 应各调用 1 次：%d/%d", obs.startCalls, obs.finishCalls)
	}
	if obs.scanTotal != 2 {
		t.Fatalf("OnScanDone total 不正确：%d", obs.scanTotal)
	}
	if !reflect.DeepEqual(obs.files, []string{"a.jpg", "b.jpg"}) {
		t.Fatalf("文件事件不符合预期：%v", obs.files)
	}
	if obs.outcome != domain.OutcomeCompleted {
		t.Fatalf("OnFinish 收到的终态不正确：%q", obs.outcome)
	}
}

func TestExecuteWithObserver_AbortStillFinishes(t *testing.T) {
	obs := &recordObserver{}
	_ = ExecuteWithObserver(context.Background(), opts(afero.NewMemMapFs(), domain.ModeFindDuplicates, nil), obs)

	if obs.finishCalls != 1 || obs.outcome != domain.OutcomeAborted {
		t.Fatalf("枚举失败也应调用 OnFinish（aborted）：calls=%d outcome=%q", obs.finishCalls, obs.outcome)
	}
	if len(obs.files) != 0 {
		t.Fatalf("aborted 时不应有文件事件：%v", obs.files)
	}
}

func TestExecuteWithObserver_CancelBetweenFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "a.jpg", "a")
	write(t, fs, "b.jpg", "b")
	write(t, fs, "c.jpg", "c")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &recordObserver{onFile: func(idx int) {
		if idx == 1 {
			cancel()
		}
	}}

	rr := ExecuteWithObserver(ctx, opts(fs, domain.ModeOrganizeByDate, stubProbe{}), obs)

	if rr.Outcome != domain.OutcomeCanceled {
		t.Fatalf("期望 canceled，实际 %q", rr.Outcome)
	}
	if len(rr.Items) != 1 || rr.Stats.Processed != 1 || rr.Stats.Discovered != 3 {
		t.Fatalf("应只处理了第一个文件：items=%d stats=%+v", len(rr.Items), rr.Stats)
	}
	mustExist(t, fs, "NO EXIF/a.jpg")
	mustExist(t, fs, "b.jpg")
	mustExist(t, fs, "c.jpg")
}

func TestExecuteWithObserver_NilObserver_SameResultAsExecute(t *testing.T) {
	mk := func() afero.Fs {
		fs := afero.NewMemMapFs()
		write(t, fs, "a.jpg", "a")
		return fs
	}

	o1 := opts(mk(), domain.ModeOrganizeByDate, stubProbe{})
	o2 := opts(mk(), domain.ModeOrganizeByDate, stubProbe{})
	a := Execute(context.Background(), o1)
	b := ExecuteWithObserver(context.Background(), o2, &recordObserver{})

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("observer 不应改变结果：\nExecute=%+v\nWithObs=%+v", a, b)
	}
}
