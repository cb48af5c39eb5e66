/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package segment

import (
	"fmt"
	"reflect"
)

// layoutOf returns the size of T after checking that T is a plain value whose
// bytes mean the same thing in every process: no pointers, slices, strings,
// maps, channels, funcs, interfaces or addresses anywhere inside it.
func layoutOf[T any]() (int, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if err := checkLayout(t, t.String()); err != nil {
		return 0, err
	}
	if t.Size() == 0 {
		return 0, fmt.Errorf("%s has zero size", t)
	}
	return int(t.Size()), nil
}

func checkLayout(t reflect.Type, path string) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return checkLayout(t.Elem(), path+"[]")
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkLayout(f.Type, path+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%s is a %s", path, t.Kind())
}
