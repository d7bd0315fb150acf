// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/ezrec/vcpu/emulator"
	"github.com/ezrec/vcpu/translate"
)

// demo loads two literals and adds them: acc = 0x1234 + 0xabcd.
const demo = `
	mov r1 0x1234
	mov r2 0xabcd
	add r1 r2
`

func main() {
	var compile string
	var binary string
	var size int
	var limit int
	var dump bool
	var transactional bool
	var defines bool
	var lang string

	flag.StringVar(&compile, "c", "", "assembly file to compile and run")
	flag.StringVar(&binary, "b", "", "raw memory image to run")
	flag.IntVar(&size, "m", emulator.MEMORY_SIZE, "memory size in bytes")
	flag.IntVar(&limit, "n", 0, "step limit, 0 runs to the end of the program")
	flag.BoolVar(&dump, "d", false, "dump registers after every step")
	flag.BoolVar(&transactional, "t", false, "roll back registers when a step fails")
	flag.BoolVar(&defines, "D", false, "list assembler defines and exit")
	flag.StringVar(&lang, "lang", "", "message language, defaults to the system locale")

	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() != 0 {
		glog.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.SetLanguage(lang)
	}

	if len(compile) != 0 && len(binary) != 0 {
		glog.Fatalf("%v: -c and -b are exclusive", os.Args[0])
	}

	emu := emulator.NewEmulator(size)
	emu.Verbose = bool(glog.V(1))
	emu.Cpu.Transactional = transactional

	if defines {
		for key, value := range emu.Defines() {
			fmt.Printf("%v = %v\n", key, value)
		}
		return
	}

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			glog.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		emu.Program, err = emu.Assembler().Parse(inf)
		if err != nil {
			glog.Fatalf("%v: %v", compile, err)
		}
		err = emu.Reset()
		if err != nil {
			glog.Fatalf("%v: %v", compile, err)
		}
	case len(binary) != 0:
		image, err := os.ReadFile(binary)
		if err != nil {
			glog.Fatalf("%v: %v", binary, err)
		}
		err = emu.LoadImage(image)
		if err != nil {
			glog.Fatalf("%v: %v", binary, err)
		}
	default:
		var err error
		emu.Program, err = emu.Assembler().Parse(strings.NewReader(demo))
		if err != nil {
			glog.Fatalf("demo: %v", err)
		}
		err = emu.Reset()
		if err != nil {
			glog.Fatalf("demo: %v", err)
		}
		dump = true
	}

	if dump {
		emu.Debug()
	}

	for steps := 0; limit == 0 || steps < limit; steps++ {
		done, err := emu.Tick()
		if err != nil {
			emu.Debug()
			glog.Fatal(err)
		}
		if done {
			break
		}
		if dump {
			emu.Debug()
		}
	}

	if !dump {
		emu.Debug()
	}
}
