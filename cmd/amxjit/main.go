// Program amxjit is a standalone toy runner: it loads a raw bytecode
// section from disk, compiles it, invokes one public function, and
// prints the result. It exists to exercise the amx/compiler/runtime/
// exemem stack end-to-end without a real AMX file loader, the way
// cmd/wasys exercises a wasm compiler without a production host around
// it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/compiler"
	"github.com/amxvm/amxjit/opcode"
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] codefile\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "codefile holds a flat AMX bytecode section (no file header):\n"+
			"this tool has no AMX container loader, so the code section and the\n"+
			"data section are supplied independently.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	var (
		dataFile = ""
		dataSize = 64 * 1024
		pubAddr  = int64(0)
		debug    = false
		dumpText = false
	)

	flag.StringVar(&dataFile, "data", dataFile, "data section file (defaults to dataSize zero bytes)")
	flag.IntVar(&dataSize, "datasize", dataSize, "data section size when -data is not given")
	flag.Int64Var(&pubAddr, "pubaddr", pubAddr, "bytecode address of the public function to run")
	flag.BoolVar(&debug, "v", debug, "log compile size summaries")
	flag.BoolVar(&dumpText, "dumptext", dumpText, "disassemble the compiled block to stdout")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	code, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	data := make([]byte, dataSize)
	if dataFile != "" {
		data, err = os.ReadFile(dataFile)
		if err != nil {
			log.Fatal(err)
		}
	}

	prog := &amx.Program{
		Header: amx.Header{Cod: 0, Dat: int32(len(code))},
		Base:   code,
		Code:   code,
	}
	instance := &amx.Instance{
		Program: prog,
		Data:    data,
		Stk:     int32(len(data)),
		Stp:     int32(len(data)),
		Hea:     0,
		Hlw:     0,
		Flags:   amx.FlagNativeRegistered,
	}

	registry := amx.NewStaticRegistry()
	registry.Publics = []uint32{uint32(pubAddr)}
	registry.Finalize()

	opts := compiler.Options{Debug: debug}

	var compileErr error
	backend, err := compiler.Compile(prog, instance, registry, nil, opts, func(ip int32, op opcode.Op, ferr error) {
		compileErr = fmt.Errorf("compile %s at %#x: %w", op, ip, ferr)
	})
	if err != nil {
		log.Fatal(err)
	}
	if compileErr != nil {
		log.Fatal(compileErr)
	}
	defer backend.Close()

	if dumpText {
		if err := backend.Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
	}

	var retval int32
	if code := backend.Exec(0, &retval); code != amx.ErrNone {
		log.Fatalf("exec failed: %s", code)
	}

	fmt.Println(retval)
}
