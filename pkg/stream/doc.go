// Package stream walks the structure block of a flattened device tree blob
// one token at a time without building a tree.
//
// A Traverser borrows the blob and keeps only a byte offset and a depth
// counter between calls, so scanning for a single property costs no heap
// allocation beyond the Traverser itself:
//
//	tr, err := stream.NewTraverser(blob)
//	if err != nil {
//	    return err
//	}
//	for {
//	    ev, err := tr.Next()
//	    if err != nil {
//	        return err
//	    }
//	    if ev.Kind == stream.EventEnd {
//	        break
//	    }
//	    if ev.Kind == stream.EventProp && string(ev.Name) == "bootargs" {
//	        fmt.Printf("%s\n", ev.Value)
//	    }
//	}
//
// Event names and values alias the blob and are only valid while it is.
package stream
