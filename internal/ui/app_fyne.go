//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"dragoneye/internal/config"
	"dragoneye/internal/crash"
	"dragoneye/internal/deckio"
	"dragoneye/internal/domain"
	applog "dragoneye/internal/log"
	"dragoneye/internal/viewport"
)

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

func themeFor(name string) (fyne.Theme, bool) {
	switch name {
	case "light":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantLight}, true
	case "dark":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantDark}, true
	}
	return nil, false
}

// Run starts the desktop UI. deckPath is optional; without it an empty
// deck is shown.
func Run(deckPath string) error {
	cfg, cfgErr := config.Load()
	applog.Init(cfg.Logging.Options())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("ui")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	l.Info("starting UI", slog.String("deck", deckPath))

	crash.SetReportDir(cfg.General.CrashDir)
	defer crash.Recover()

	d := domain.Deck{Name: "Untitled", Version: 1}
	if deckPath != "" {
		loaded, err := deckio.Load(deckPath)
		if err != nil {
			return fmt.Errorf("open deck: %w", err)
		}
		d = loaded
	}

	fyneApp := app.NewWithID("dragoneye")
	if th, ok := themeFor(cfg.General.Theme); ok {
		fyneApp.Settings().SetTheme(th)
	}
	w := fyneApp.NewWindow("Dragoneye - " + d.Name)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	opts := cfg.Viewport.Options()
	opts.Scheduler = &viewport.TimerScheduler{Dispatch: fyne.Do}
	ctrl := NewController(d, opts)
	defer ctrl.Close()

	status := widget.NewLabel("Ready")
	cv := NewCardCanvas(ctrl)
	cv.OnChanged = func() { status.SetText(ctrl.Status()) }

	crash.SetAutosave(func() (string, error) {
		p := filepath.Join(os.TempDir(), fmt.Sprintf("dragoneye-rescue-%s.yaml", time.Now().Format("20060102-150405")))
		return p, deckio.Save(p, ctrl.Host.Deck())
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { ctrl.View.ZoomIn() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { ctrl.View.ZoomOut() }),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), ctrl.View.ResetView),
		widget.NewToolbarAction(theme.ViewFullScreenIcon(), ctrl.FitDeck),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if deckPath == "" {
				dialog.ShowInformation("Save", "Open a deck file to save it.", w)
				return
			}
			if err := deckio.Save(deckPath, ctrl.Host.Deck()); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Saved " + filepath.Base(deckPath))
		}),
	)

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+', '=':
			ctrl.View.ZoomIn()
		case '-':
			ctrl.View.ZoomOut()
		case '0':
			ctrl.View.ResetView()
		case 'f':
			ctrl.FitDeck()
		}
	})

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		ctrl.UndoSelection()
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}, func(fyne.Shortcut) {
		ctrl.RedoSelection()
	})

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, cv))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	status.SetText(ctrl.Status())
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
