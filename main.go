package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/GregorR/midifile/player"
	"github.com/GregorR/midifile/smf"
	"github.com/GregorR/midifile/stream"
)

const recordDivision = 480

func main() {
	list := false
	inputFile := ""
	outputFile := ""
	outPort := -1
	inPort := -1
	wsAddr := ""
	dump := false
	interval := 1
	verbose := false

	flag.BoolVar(&list, "l", false, "list MIDI ports")
	flag.StringVar(&inputFile, "i", "", "input file to play or dump")
	flag.IntVar(&outPort, "o", -1, "output port number")
	flag.StringVar(&wsAddr, "ws", "", "serve playback to websocket clients on this address instead of a port")
	flag.IntVar(&inPort, "r", -1, "input port number to record from")
	flag.StringVar(&outputFile, "w", "", "file to write the recording to")
	flag.BoolVar(&dump, "dump", false, "print the events of the input file")
	flag.IntVar(&interval, "interval", 1, "timer period in milliseconds")
	flag.BoolVar(&verbose, "v", false, "debug logging")

	flag.Parse()

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	defer gomidi.CloseDriver()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	period := time.Duration(interval) * time.Millisecond

	var err error
	switch {
	case list:
		listPorts()
	case dump && inputFile != "":
		err = dumpFile(inputFile)
	case inputFile != "" && (outPort >= 0 || wsAddr != ""):
		err = play(ctx, inputFile, outPort, wsAddr, period)
	case inPort >= 0 && outputFile != "":
		err = record(ctx, inPort, outputFile)
	default:
		flag.Usage()
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatal(err)
	}
}

func listPorts() {
	fmt.Println("Input ports:")
	for i, p := range gomidi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("Output ports:")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func dumpFile(path string) error {
	f, err := smf.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("format %d, %d tracks, %d ticks per quarter\n", f.Format, f.NumTracks(), f.TimeDivision)
	for i, t := range f.Tracks() {
		fmt.Printf("track %d: %d events\n", i, t.Len())
		for _, ev := range t.Events() {
			fmt.Printf("  %8d  %s\n", ev.AbsoluteTm, describe(ev))
		}
	}
	return nil
}

func describe(ev *smf.Event) string {
	if ev.Meta == nil {
		return ev.MIDI().String()
	}
	m := ev.Meta
	if ev.Message.Status != smf.StatusMeta {
		return fmt.Sprintf("SysEx % X", m.Data)
	}
	if tempo, ok := m.Tempo(); ok {
		return fmt.Sprintf("Tempo %d us/quarter", tempo)
	}
	if ts, ok := m.TimeSignature(); ok {
		return fmt.Sprintf("TimeSignature %d/%d", ts.Numerator, 1<<ts.DenominatorPower)
	}
	if ks, ok := m.KeySignature(); ok {
		return fmt.Sprintf("KeySignature %d minor=%t", ks.Sharps, ks.Minor)
	}
	if text, ok := m.Text(); ok {
		return fmt.Sprintf("Meta %#02x %q", m.Type, text)
	}
	if ev.IsEndOfTrack() {
		return "EndOfTrack"
	}
	return fmt.Sprintf("Meta %#02x % X", m.Type, m.Data)
}

func play(ctx context.Context, path string, port int, wsAddr string, period time.Duration) error {
	f, err := smf.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := stream.Open(f)
	if err != nil {
		return err
	}

	var sink player.Sink
	if wsAddr != "" {
		hub := player.NewHub(player.DefaultSyncInterval)
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: wsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("websocket server stopped")
			}
		}()
		defer srv.Close()

		logrus.Infof("serving websocket clients on %s/ws", wsAddr)
		fmt.Println("Press enter to start playback")
		bufio.NewReader(os.Stdin).ReadString('\n')
		sink = hub
	} else {
		out, err := gomidi.OutPort(port)
		if err != nil {
			return fmt.Errorf("output port %d: %w", port, err)
		}
		ps, err := player.OpenPort(out)
		if err != nil {
			return err
		}
		defer ps.Close()
		logrus.WithField("port", ps.String()).Info("playing")
		sink = ps
	}

	p := player.New(s, sink, player.WithInterval(period))
	if err := p.Start(); err != nil {
		return err
	}
	_, err = p.Run(ctx)
	return err
}

func record(ctx context.Context, port int, path string) error {
	in, err := gomidi.InPort(port)
	if err != nil {
		return fmt.Errorf("input port %d: %w", port, err)
	}

	s, err := stream.Open(smf.NewFile(recordDivision))
	if err != nil {
		return err
	}
	if err := s.Start(s.Now()); err != nil {
		return err
	}

	rec := player.NewRecorder(s, 0)
	if err := rec.Listen(in); err != nil {
		return err
	}
	fmt.Println("Recording, press Ctrl-C to stop")
	<-ctx.Done()

	f := rec.Close()
	logrus.WithFields(logrus.Fields{"events": rec.Count(), "file": path}).Info("writing recording")
	return smf.WriteFile(path, f)
}
